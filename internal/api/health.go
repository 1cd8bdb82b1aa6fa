package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/phishscan/internal/reputation"
)

// HealthStatus represents the status of a readiness check.
type HealthStatus string

const (
	// HealthStatusHealthy indicates the component is fully available.
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusDegraded indicates scoring works without the component.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusUnhealthy indicates the service cannot score.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ReadyCheck reports the readiness of one component.
type ReadyCheck func() CheckResult

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// ModelCheck reports the loaded model bundle by digest.
// An empty digest means no classifier is configured, which only degrades scoring.
func ModelCheck(digest string) ReadyCheck {
	return func() CheckResult {
		if digest == "" {
			return CheckResult{Status: HealthStatusDegraded, Message: "no model bundle loaded"}
		}
		return CheckResult{Status: HealthStatusHealthy, Message: "sha3-256:" + digest}
	}
}

// SnapshotCheck reports the state of the blacklist snapshot.
// A snapshot older than maxAge is reported as degraded; maxAge <= 0 disables the age check.
func SnapshotCheck(src *reputation.SnapshotSource, maxAge time.Duration) ReadyCheck {
	return func() CheckResult {
		snap := src.Current()
		if snap == nil {
			return CheckResult{Status: HealthStatusDegraded, Message: "no blacklist snapshot yet"}
		}
		meta := snap.Meta()
		msg := fmt.Sprintf("%d entries from %s, fetched %s", snap.Len(), meta.Source, meta.FetchedAt.UTC().Format(time.RFC3339))
		if maxAge > 0 && time.Since(meta.FetchedAt) > maxAge {
			return CheckResult{Status: HealthStatusDegraded, Message: "stale: " + msg}
		}
		return CheckResult{Status: HealthStatusHealthy, Message: msg}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  HealthStatusHealthy,
		Service: serviceName,
		Version: s.version,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
	})
}

// ready aggregates the readiness checks. Only an unhealthy check fails the probe;
// a degraded component still lets the pipeline score with the remaining signals.
func (s *Server) ready(c *gin.Context) {
	resp := HealthResponse{
		Status:  HealthStatusHealthy,
		Service: serviceName,
		Version: s.version,
		Checks:  make(map[string]CheckResult, len(s.checks)),
	}
	for name, check := range s.checks {
		res := check()
		resp.Checks[name] = res
		switch {
		case res.Status == HealthStatusUnhealthy:
			resp.Status = HealthStatusUnhealthy
		case res.Status == HealthStatusDegraded && resp.Status == HealthStatusHealthy:
			resp.Status = HealthStatusDegraded
		}
	}

	code := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
