package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maternityCare/domain"
	"maternityCare/pkg/logger"
	"maternityCare/pkg/metrics"
)

// Chain is a ranked list of interchangeable oracles. Run walks it in order
// and returns the first answer that satisfies the contract.
type Chain struct {
	stage   string
	timeout time.Duration
	oracles []Oracle
}

func NewChain(stage string, timeout time.Duration, oracles ...Oracle) *Chain {
	ranked := make([]Oracle, 0, len(oracles))
	for _, o := range oracles {
		if o != nil {
			ranked = append(ranked, o)
		}
	}
	return &Chain{stage: stage, timeout: timeout, oracles: ranked}
}

func (c *Chain) Stage() string { return c.stage }

func (c *Chain) Providers() []string {
	out := make([]string, 0, len(c.oracles))
	for _, o := range c.oracles {
		out = append(out, o.Name())
	}
	return out
}

type Attempt struct {
	Provider string        `json:"provider"`
	Outcome  string        `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

type Result[T any] struct {
	Value    T
	Provider string
	Attempts []Attempt
}

// Run asks each oracle in rank order. Timeouts, transport errors, unparseable
// output and schema violations all move on to the next oracle; none of them
// is ever partially trusted. Exhausting the chain returns an error wrapping
// domain.ErrOracleExhausted.
func Run[T any](ctx context.Context, c *Chain, req Request, check func(*T) error) (Result[T], error) {
	var res Result[T]
	if c == nil || len(c.oracles) == 0 {
		return res, fmt.Errorf("oracle chain: %w: no oracle configured", domain.ErrOracleExhausted)
	}

	errs := make([]error, 0, len(c.oracles))
	for _, o := range c.oracles {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("oracle chain %s: %w", c.stage, err)
		}

		start := time.Now()
		val, outcome, err := attempt(ctx, c.timeout, o, req, check)
		elapsed := time.Since(start)

		metrics.OracleAttempts.WithLabelValues(c.stage, o.Name(), outcome).Inc()
		metrics.OracleLatency.WithLabelValues(c.stage, o.Name()).Observe(elapsed.Seconds())

		res.Attempts = append(res.Attempts, Attempt{
			Provider: o.Name(),
			Outcome:  outcome,
			Duration: elapsed,
			Err:      err,
		})

		if err == nil {
			res.Value = val
			res.Provider = o.Name()
			return res, nil
		}

		logger.Warn("oracle attempt failed",
			"stage", c.stage,
			"provider", o.Name(),
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", o.Name(), err))
	}

	return res, fmt.Errorf("oracle chain %s: %w: %w", c.stage, domain.ErrOracleExhausted, errors.Join(errs...))
}

type completion struct {
	raw string
	err error
}

func attempt[T any](parent context.Context, timeout time.Duration, o Oracle, req Request, check func(*T) error) (T, string, error) {
	var zero T

	ctx := parent
	cancel := func() {}
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	}
	defer cancel()

	// The call runs on its own goroutine so a provider that is slow to honor
	// cancellation cannot hold the chain past its deadline.
	done := make(chan completion, 1)
	go func() {
		raw, err := o.Generate(ctx, req)
		done <- completion{raw: raw, err: err}
	}()

	var out completion
	select {
	case out = <-done:
	case <-ctx.Done():
		if parent.Err() != nil {
			return zero, OutcomeTransport, parent.Err()
		}
		return zero, OutcomeTimeout, fmt.Errorf("timed out after %s: %w", timeout, ctx.Err())
	}

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) && parent.Err() == nil {
			return zero, OutcomeTimeout, out.err
		}
		return zero, OutcomeTransport, out.err
	}

	val, err := Decode(out.raw, check)
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			return zero, OutcomeSchema, err
		}
		return zero, OutcomeParse, err
	}

	return val, OutcomeOK, nil
}
