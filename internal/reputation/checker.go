package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// Checker adapts a Source to the reputation signal.
type Checker struct {
	source Source
	logger *slog.Logger
}

// NewChecker creates a Checker. A nil logger uses slog.Default().
func NewChecker(source Source, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{source: source, logger: logger}
}

// Name returns the signal name.
func (c *Checker) Name() model.SignalName {
	return model.SignalReputation
}

// Source returns the underlying source.
func (c *Checker) Source() Source {
	return c.source
}

// Check looks up rec. Hits and misses are successes; any lookup error is
// reported as unavailable. Only a panic inside the source is an error.
func (c *Checker) Check(ctx context.Context, rec *model.URLRecord) (result model.SignalResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("reputation lookup panicked", "source", c.source.Name(), "panic", r)
			result = model.Failure(model.SignalReputation, fmt.Errorf("reputation source %s panicked: %v", c.source.Name(), r))
		}
		result = result.WithDuration(time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return model.Unavailable(model.SignalReputation, err.Error())
	}

	v, err := c.source.Lookup(ctx, rec)
	if err != nil {
		c.logger.Debug("reputation verdict unavailable", "source", c.source.Name(), "error", err)
		return model.Unavailable(model.SignalReputation, err.Error())
	}
	if v.Hit {
		c.logger.Debug("blacklist hit", "source", v.Source, "host", rec.Host)
		return model.Success(model.SignalReputation, model.MinScore, model.ThreatBlacklisted)
	}
	return model.Success(model.SignalReputation, model.MaxScore)
}
