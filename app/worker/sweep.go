package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"maternityCare/domain"
	"maternityCare/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type signalBuilder interface {
	BuildSignals(ctx context.Context, userID string) (domain.SignalSnapshot, error)
}

type preferenceInferrer interface {
	InferPreferences(ctx context.Context, userID string) (domain.InferenceResult, error)
}

type activeUserLister interface {
	ActiveUsers(ctx context.Context, since time.Time) ([]string, error)
}

type sweeper struct {
	users       activeUserLister
	signals     signalBuilder
	preferences preferenceInferrer
	concurrency int
}

type sweepSummary struct {
	Users              int
	SignalFailures     int64
	PreferenceFailures int64
}

// run refreshes preferences and then signals for every user with events
// since the given time. A failure for one user is logged and counted; it
// never stops the sweep.
func (s sweeper) run(ctx context.Context, since time.Time) (sweepSummary, error) {
	users, err := s.users.ActiveUsers(ctx, since)
	if err != nil {
		return sweepSummary{}, fmt.Errorf("failed to list active users: %w", err)
	}

	summary := sweepSummary{Users: len(users)}
	var signalFailures, prefFailures atomic.Int64

	limit := s.concurrency
	if limit <= 0 {
		limit = 4
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, userID := range users {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if _, err := s.preferences.InferPreferences(ctx, userID); err != nil {
				prefFailures.Add(1)
				logger.Warn("sweep: preference inference failed", "user_id", userID, "error", err)
			}
			if _, err := s.signals.BuildSignals(ctx, userID); err != nil {
				signalFailures.Add(1)
				logger.Warn("sweep: signal build failed", "user_id", userID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.SignalFailures = signalFailures.Load()
	summary.PreferenceFailures = prefFailures.Load()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}
