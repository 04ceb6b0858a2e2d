package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"horizon/internal/core"
	"horizon/internal/export"
)

// MirrorWorker copies recorded contributions to the group spreadsheet.
// The backlog column in storage makes this resumable: rows stay pending
// until an append succeeds, so broker downtime or process restarts lose
// nothing.
type MirrorWorker struct {
	store     MirrorStore
	writer    export.LedgerWriter
	batchSize int
}

func NewMirrorWorker(store MirrorStore, writer export.LedgerWriter, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorWorker{store: store, writer: writer, batchSize: batchSize}
}

// ProcessPending mirrors one batch of pending contributions. Transient
// append failures leave the row pending for the next pass; a row that
// cannot ever be mirrored is flagged so it stops clogging the backlog.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending mirror rows: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	mirrored := 0
	for _, c := range pending {
		name := ""
		profile, err := w.store.GetProfile(ctx, c.MemberID)
		switch {
		case err == nil:
			name = profile.FullName
		case errors.Is(err, core.ErrUnknownMember):
			// Mirror the row anyway; the ID column still identifies it.
		default:
			slog.ErrorContext(ctx, "Failed to resolve member for mirror",
				"contribution_id", c.ID, "member_id", c.MemberID, "error", err)
			continue
		}

		_, err = w.writer.AppendContribution(ctx, c, name)
		if err != nil {
			if isPermanentMirrorFailure(err) {
				slog.ErrorContext(ctx, "Contribution cannot be mirrored, flagging",
					"contribution_id", c.ID, "error", err)
				if markErr := w.store.MarkMirrorError(ctx, c.ID); markErr != nil {
					slog.ErrorContext(ctx, "Failed to flag mirror error",
						"contribution_id", c.ID, "error", markErr)
				}
				continue
			}
			slog.ErrorContext(ctx, "Failed to mirror contribution, will retry",
				"contribution_id", c.ID, "error", err)
			continue
		}

		if err := w.store.MarkMirrored(ctx, c.ID); err != nil {
			// The append succeeded; the row will be re-appended next pass,
			// which the officials can reconcile by the recorded-at column.
			slog.ErrorContext(ctx, "Failed to mark contribution mirrored",
				"contribution_id", c.ID, "error", err)
			continue
		}
		mirrored++
	}

	slog.InfoContext(ctx, "Mirror pass completed",
		"pending", len(pending),
		"mirrored", mirrored)
	return nil
}

// isPermanentMirrorFailure reports whether retrying the append can never
// succeed, which is the case when the row itself is malformed.
func isPermanentMirrorFailure(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrUnknownMember)
}

// RunLoop repeats ProcessPending at the given interval until the context
// ends.
func (w *MirrorWorker) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := w.ProcessPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Mirror pass failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Mirror pass failed", "error", err)
			}
		}
	}
}
