package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/mj1618/desktop-replay/internal/model"
)

// Escalator takes over a step after every attempt failed, for example by
// handing it to a human or a vision model. It receives the last attempt's
// result and error.
type Escalator interface {
	Escalate(ctx context.Context, rec *model.RecordedSignature, last *Result, cause error) (*Result, error)
}

// EscalatorFunc adapts a function to Escalator.
type EscalatorFunc func(ctx context.Context, rec *model.RecordedSignature, last *Result, cause error) (*Result, error)

// Escalate calls f.
func (f EscalatorFunc) Escalate(ctx context.Context, rec *model.RecordedSignature, last *Result, cause error) (*Result, error) {
	return f(ctx, rec, last, cause)
}

// retryPolicy spaces attempts by a constant delay. Only the attempt count
// bounds the loop; backoff's elapsed-time limit is switched off.
func retryPolicy(attempts int, delay time.Duration, notify backoff.Notify) []backoff.RetryOption {
	return []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	}
}

// retry runs the pipeline until it succeeds or the attempt budget is spent,
// pausing RetryDelay between attempts. An invalid step is not retried.
func (e *Engine) retry(ctx context.Context, rec *model.RecordedSignature, opts Options, log *slog.Logger) (*Result, error) {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = e.cfg.Retry.Attempts
	}
	var (
		last    *Result
		lastErr error
		n       int
	)
	op := func() (*Result, error) {
		n++
		res, err := e.runAttempt(ctx, rec, opts, log, n)
		last, lastErr = res, err
		if err != nil && errors.Is(err, ErrInvalidStep) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}
	res, err := backoff.Retry(ctx, op, retryPolicy(attempts, e.cfg.Timing.RetryDelay,
		func(err error, d time.Duration) {
			log.Debug("retrying", slog.Int("attempt", n), slog.Duration("delay", d), slog.String("error", err.Error()))
		})...)
	if err == nil {
		res.Attempts = n
		return res, nil
	}
	if last == nil {
		last = &Result{Stage: StageOf(err)}
	}
	last.Attempts = n
	if lastErr == nil {
		lastErr = err
	}
	if ctx.Err() != nil || errors.Is(err, ErrInvalidStep) {
		return last, lastErr
	}
	if e.escalator != nil {
		log.Debug("escalating", slog.Int("attempts", n))
		er, eerr := e.escalator.Escalate(ctx, rec, last, lastErr)
		if er == nil {
			er = last
		}
		er.Attempts = n
		return er, eerr
	}
	return last, &Error{
		Stage:      StageEscalation,
		Code:       ErrEscalationRequired,
		Message:    fmt.Sprintf("%d attempts failed", n),
		Mismatches: last.Mismatches,
		Score:      last.Score,
		Cause:      lastErr,
	}
}
