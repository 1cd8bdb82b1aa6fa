package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/report"
)

// ScanRequest is the body of POST /api/scan-url.
type ScanRequest struct {
	URL string `json:"url"`
}

// BatchRequest is the body of POST /api/scan-url/batch.
type BatchRequest struct {
	URLs []string `json:"urls"`
}

// BatchResponse is the body returned for a batch request, in input order.
type BatchResponse struct {
	Results []report.Entry `json:"results"`
}

// ErrorResponse is returned for every non-2xx response.
type ErrorResponse struct {
	Error   string                `json:"error"`
	Signals []model.SignalOutcome `json:"signals,omitempty"`
}

// scanURL handles POST /api/scan-url.
func (s *Server) scanURL(c *gin.Context) {
	var req ScanRequest
	if !s.bind(c, &req) {
		return
	}
	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "url cannot be empty"})
		return
	}

	res, err := s.scorer.ScoreURL(c.Request.Context(), raw)
	if err != nil {
		s.writeScoreError(c, err)
		return
	}

	s.record(c.Request.Context(), res)
	c.JSON(http.StatusOK, res)
}

// scanBatch handles POST /api/scan-url/batch.
// Per-URL failures are reported inline; the request itself succeeds.
func (s *Server) scanBatch(c *gin.Context) {
	var req BatchRequest
	if !s.bind(c, &req) {
		return
	}
	if len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "urls cannot be empty"})
		return
	}
	if len(req.URLs) > s.maxBatch {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "too many urls: at most " + strconv.Itoa(s.maxBatch) + " per request",
		})
		return
	}

	results, err := s.batch.ScoreAll(c.Request.Context(), req.URLs)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "batch scoring cancelled"})
		return
	}

	resp := BatchResponse{Results: make([]report.Entry, len(results))}
	for i, r := range results {
		resp.Results[i] = report.NewEntry(r.URL, r.Result, r.Err)
		if r.Result != nil {
			s.record(c.Request.Context(), r.Result)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// listHistory handles GET /api/history?limit=N.
func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "history is disabled"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := s.history.History(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (s *Server) bind(c *gin.Context, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeScoreError(c *gin.Context, err error) {
	var aggErr *pipeline.AggregateError
	switch {
	case errors.Is(err, pipeline.ErrMalformedURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.As(err, &aggErr):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Signals: aggErr.Outcomes})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "scoring cancelled"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// record saves res to the history store. Failures are logged, never returned.
func (s *Server) record(ctx context.Context, res *model.AggregateResult) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Save(ctx, res); err != nil {
		s.logger.Warn("failed to save scan history", "url", res.URL, "error", err)
	}
}
