package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/telemetry"
	"github.com/nao1215/phishscan/internal/urlparse"
)

const (
	// DefaultReputationTimeout bounds a reputation lookup.
	DefaultReputationTimeout = 2 * time.Second

	// DefaultClassifierTimeout bounds classifier inference.
	DefaultClassifierTimeout = time.Second

	reasonTimeout   = "timeout"
	reasonCancelled = "cancelled"
)

// StateObserver is notified of every state transition of a request.
// It is called synchronously from ScoreURL and must not block.
type StateObserver func(url string, state model.AggregateState)

// timedSignal is a concurrent signal with its deadline.
type timedSignal struct {
	signal  Signal
	timeout time.Duration
}

// Aggregator orchestrates the signals for one URL at a time. It holds no
// per-request state and is safe for concurrent use.
type Aggregator struct {
	// sync runs on the calling goroutine.
	sync Signal

	// concurrent run in their own goroutines, each under its own timeout.
	concurrent []timedSignal

	policy   Policy
	observer StateObserver
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time
}

// Option is a function that configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithMetrics records signal outcomes and results to m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithPolicy sets the combination policy.
func WithPolicy(p Policy) Option {
	return func(a *Aggregator) {
		a.policy = p
	}
}

// WithStateObserver registers a callback for state transitions.
func WithStateObserver(fn StateObserver) Option {
	return func(a *Aggregator) {
		a.observer = fn
	}
}

// WithSignal adds a signal that runs concurrently under timeout.
// A non-positive timeout uses DefaultClassifierTimeout.
func WithSignal(sig Signal, timeout time.Duration) Option {
	return func(a *Aggregator) {
		if sig == nil {
			return
		}
		if timeout <= 0 {
			timeout = DefaultClassifierTimeout
		}
		a.concurrent = append(a.concurrent, timedSignal{signal: sig, timeout: timeout})
	}
}

// NewAggregator creates an Aggregator. syncSignal (normally the heuristic
// analyzer) runs on the caller's goroutine; other signals are added with
// WithSignal.
func NewAggregator(syncSignal Signal, opts ...Option) *Aggregator {
	a := &Aggregator{
		sync:   syncSignal,
		policy: DefaultPolicy(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// Signals returns the names of the intended signals in evaluation order.
func (a *Aggregator) Signals() []model.SignalName {
	names := make([]model.SignalName, 0, len(a.concurrent)+1)
	if a.sync != nil {
		names = append(names, a.sync.Name())
	}
	for _, ts := range a.concurrent {
		names = append(names, ts.signal.Name())
	}
	return names
}

// Policy returns the combination policy.
func (a *Aggregator) Policy() Policy {
	return a.policy
}

// ScoreURL scores raw.
//
// Malformed input returns an error wrapping ErrMalformedURL without running
// any signal. A URL that is not an http(s) URL with a host is disqualified:
// the result has score 0, the INVALID_PROTOCOL and INVALID_DOMAIN threats,
// and SignalsUsed {structure}. If no signal produces a usable result the
// error is an *AggregateError.
func (a *Aggregator) ScoreURL(ctx context.Context, raw string) (*model.AggregateResult, error) {
	a.transition(raw, model.StatePending)

	rec, err := urlparse.Parse(raw)
	if err != nil {
		var dq *urlparse.DisqualifiedError
		if errors.As(err, &dq) {
			return a.disqualified(raw, dq), nil
		}
		a.logger.Debug("rejected malformed URL", "url", raw, "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring cancelled: %w", err)
	}

	a.transition(rec.Raw, model.StateCollecting)
	results := a.collect(ctx, rec)
	for _, r := range results {
		a.metrics.RecordSignal(r)
		a.logSignal(rec, r)
	}

	a.transition(rec.Raw, model.StateCombining)
	c, err := Combine(a.policy, a.Signals(), results)
	if err != nil {
		var aggErr *AggregateError
		if errors.As(err, &aggErr) {
			aggErr.URL = rec.Raw
		}
		a.transition(rec.Raw, model.StateFailed)
		a.metrics.RecordFailure()
		a.logger.Warn("no usable signal", "url", rec.Raw, "error", err)
		return nil, err
	}

	res := &model.AggregateResult{
		ID:          uuid.NewString(),
		URL:         rec.Raw,
		FinalScore:  c.FinalScore,
		Threats:     c.Threats,
		SignalsUsed: c.SignalsUsed,
		State:       c.State,
		Vetoed:      c.Vetoed,
		SafetyLevel: model.SafetyLevelFor(c.FinalScore),
		Signals:     make([]model.SignalOutcome, 0, len(results)),
		ScannedAt:   a.now().UTC(),
	}
	for _, r := range results {
		res.Signals = append(res.Signals, model.NewSignalOutcome(r))
	}

	a.transition(rec.Raw, c.State)
	a.metrics.RecordResult(res)
	a.logger.Debug("url scored",
		"scan_id", res.ID,
		"url", rec.Raw,
		"score", res.FinalScore,
		"state", res.State,
		"vetoed", res.Vetoed,
		"signals_used", res.SignalsUsed,
	)
	return res, nil
}

// collect runs every signal and returns one result per intended signal in
// the order of Signals.
func (a *Aggregator) collect(ctx context.Context, rec *model.URLRecord) []model.SignalResult {
	concurrent := make([]model.SignalResult, len(a.concurrent))

	var g errgroup.Group
	for i, ts := range a.concurrent {
		g.Go(func() error {
			concurrent[i] = runTimed(ctx, ts.signal, ts.timeout, rec)
			return nil
		})
	}

	results := make([]model.SignalResult, 0, len(a.concurrent)+1)
	if a.sync != nil {
		start := time.Now()
		r := evaluate(ctx, a.sync, rec)
		if r.Duration == 0 {
			r = r.WithDuration(time.Since(start))
		}
		results = append(results, r)
	}

	_ = g.Wait() //nolint:errcheck // goroutines never return errors
	return append(results, concurrent...)
}

// runTimed runs sig in its own goroutine and stops waiting when timeout
// elapses or ctx is cancelled. An abandoned goroutine finishes in the
// background and its result is discarded.
func runTimed(ctx context.Context, sig Signal, timeout time.Duration, rec *model.URLRecord) model.SignalResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan model.SignalResult, 1)
	go func() {
		done <- evaluate(ctx, sig, rec)
	}()

	select {
	case r := <-done:
		if r.Duration == 0 {
			r = r.WithDuration(time.Since(start))
		}
		return r
	case <-ctx.Done():
		reason := reasonCancelled
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = reasonTimeout
		}
		return model.Unavailable(sig.Name(), reason).WithDuration(time.Since(start))
	}
}

// evaluate calls sig and converts a panic into an error result.
func evaluate(ctx context.Context, sig Signal, rec *model.URLRecord) (result model.SignalResult) {
	name := sig.Name()
	defer func() {
		if r := recover(); r != nil {
			result = model.Failure(name, fmt.Errorf("%w: %s: %v", ErrSignalPanic, name, r))
		}
	}()

	result = sig.Evaluate(ctx, rec)
	result.Signal = name
	return result
}

func (a *Aggregator) disqualified(raw string, dq *urlparse.DisqualifiedError) *model.AggregateResult {
	url := raw
	if dq.Record != nil {
		url = dq.Record.Raw
	}
	verdict := model.Success(model.SignalStructure, model.MinScore, dq.Threats...)

	res := &model.AggregateResult{
		ID:          uuid.NewString(),
		URL:         url,
		FinalScore:  model.MinScore,
		Threats:     verdict.Threats,
		SignalsUsed: []model.SignalName{model.SignalStructure},
		State:       model.StateDone,
		SafetyLevel: model.SafetyLevelFor(model.MinScore),
		Signals:     []model.SignalOutcome{model.NewSignalOutcome(verdict)},
		ScannedAt:   a.now().UTC(),
	}

	a.transition(url, model.StateDone)
	a.metrics.RecordResult(res)
	a.logger.Debug("url disqualified", "url", url, "threats", res.Threats)
	return res
}

func (a *Aggregator) transition(url string, state model.AggregateState) {
	if a.observer != nil {
		a.observer(url, state)
	}
}

func (a *Aggregator) logSignal(rec *model.URLRecord, r model.SignalResult) {
	switch r.Status {
	case model.StatusError:
		a.logger.Warn("signal failed",
			"signal", r.Signal,
			"url", rec.Raw,
			"error", r.Err,
		)
	case model.StatusUnavailable:
		a.logger.Debug("signal unavailable",
			"signal", r.Signal,
			"url", rec.Raw,
			"reason", r.Reason,
		)
	default:
		a.logger.Debug("signal completed",
			"signal", r.Signal,
			"url", rec.Raw,
			"score", r.Score,
			"duration", r.Duration,
		)
	}
}
