package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"horizon/internal/amqp"
	"horizon/internal/core"
	"horizon/internal/services"
)

// ReminderSweep periodically finds members who have missed days and runs
// their reminder through the dispatch path, where the once-per-day
// throttle and reachability checks apply.
type ReminderSweep struct {
	candidates CandidateLister
	ledger     LedgerReader
	dispatch   *DispatchWorker
	batchSize  int
	loc        *time.Location
	now        func() time.Time
}

func NewReminderSweep(candidates CandidateLister, ledger LedgerReader, dispatch *DispatchWorker, batchSize int, loc *time.Location) *ReminderSweep {
	if loc == nil {
		loc = time.UTC
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ReminderSweep{
		candidates: candidates,
		ledger:     ledger,
		dispatch:   dispatch,
		batchSize:  batchSize,
		loc:        loc,
		now:        time.Now,
	}
}

// Run performs one sweep. Per-member failures are logged and skipped so
// one broken record cannot stall the rest of the batch.
func (s *ReminderSweep) Run(ctx context.Context) error {
	candidates, err := s.candidates.ListReminderCandidates(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("list reminder candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	today := core.DateOf(s.now().In(s.loc))
	reminded := 0

	for _, profile := range candidates {
		// Cheap pre-check; the dispatch path re-acquires the throttle
		// before anything goes out.
		if !services.MayRemind(profile.LastMissedReminderSent, today) {
			continue
		}

		contributions, err := s.ledger.ListContributions(ctx, profile.MemberID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read ledger for sweep",
				"member_id", profile.MemberID, "error", err)
			continue
		}

		missed := core.MissedDays(contributions, today)
		if missed == 0 {
			continue
		}

		intent := amqp.NewNotificationIntent(profile.MemberID, core.MessageMissedContribution)
		intent.MissedDays = missed
		if err := s.dispatch.HandleIntent(ctx, intent); err != nil {
			slog.ErrorContext(ctx, "Failed to dispatch reminder",
				"member_id", profile.MemberID, "error", err)
			continue
		}
		reminded++
	}

	slog.InfoContext(ctx, "Reminder sweep completed",
		"candidates", len(candidates),
		"reminded", reminded)
	return nil
}

// RunLoop repeats Run at the given interval until the context ends. The
// first sweep happens immediately so a restart does not delay reminders
// by a whole interval.
func (s *ReminderSweep) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := s.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "Reminder sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "Reminder sweep failed", "error", err)
			}
		}
	}
}
