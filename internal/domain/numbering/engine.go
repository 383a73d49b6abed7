package numbering

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
	"brewops/internal/core/tx"
	"brewops/pkg/logger"
)

var tracer = otel.Tracer("brewops/numbering")

const (
	defaultMaxAttempts  = 10
	defaultRetryBackoff = 20 * time.Millisecond
	maxRetryBackoff     = 500 * time.Millisecond
)

// Engine advances counters. Each increment is one transaction that locks the row,
// computes the next value and writes it back before the lock is released.
//
// A transaction that loses the row lock (lock timeout, busy database, deadlock)
// is rolled back and run again, so contention only shows up as latency. Retries
// stop after maxAttempts or when ctx is done.
type Engine struct {
	repo      numerator.Repository
	txManager tx.Manager
	now       func() time.Time
	location  *time.Location

	maxAttempts  int
	retryBackoff time.Duration
}

// NewEngine creates an engine. Calendar years are evaluated in location.
func NewEngine(repo numerator.Repository, txManager tx.Manager, now func() time.Time, location *time.Location) *Engine {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &Engine{
		repo:         repo,
		txManager:    txManager,
		now:          now,
		location:     location,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
}

// Increment issues the next value of the row and returns its committed state.
// The bool reports whether a yearly reset happened.
// Returns an apperror NOT_FOUND if the row vanished after resolution.
func (e *Engine) Increment(ctx context.Context, tenantID string, counterID id.ID) (*numerator.Counter, bool, error) {
	ctx, span := tracer.Start(ctx, "numbering.increment",
		trace.WithAttributes(attribute.String("counter.id", counterID.String())))
	defer span.End()

	var (
		counter *numerator.Counter
		reset   bool
		err     error
	)
	backoff := e.retryBackoff
	for attempt := 1; ; attempt++ {
		counter, reset, err = e.incrementOnce(ctx, tenantID, counterID)
		if err == nil || !tx.IsContention(err) || attempt >= e.maxAttempts {
			break
		}

		span.AddEvent("lock contention", trace.WithAttributes(attribute.Int("attempt", attempt)))
		logger.Debug(ctx, "counter lock not acquired, retrying",
			"counter_id", counterID.String(), "attempt", attempt, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return e.fail(span, err)
		case <-timer.C:
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}
	if err != nil {
		return e.fail(span, err)
	}

	span.SetAttributes(
		attribute.String("counter.entity", counter.Entity),
		attribute.Int64("counter.number", counter.CurrentNumber),
		attribute.Bool("counter.reset", reset),
	)
	return counter, reset, nil
}

func (e *Engine) fail(span trace.Span, err error) (*numerator.Counter, bool, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, false, err
}

func (e *Engine) incrementOnce(ctx context.Context, tenantID string, counterID id.ID) (*numerator.Counter, bool, error) {
	var (
		counter *numerator.Counter
		reset   bool
	)
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := e.repo.GetForUpdate(ctx, tenantID, counterID)
		if err != nil {
			return err
		}

		// The clock is read only after the lock is held, so updated_at never moves backwards.
		reset = c.Advance(e.now().In(e.location))

		if err := e.repo.SaveNumber(ctx, c); err != nil {
			return err
		}
		counter = c
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return counter, reset, nil
}

// Year returns the calendar year a committed counter's number belongs to.
func (e *Engine) Year(c *numerator.Counter) int {
	if c.UpdatedAt == nil {
		return e.now().In(e.location).Year()
	}
	return c.UpdatedAt.In(e.location).Year()
}
