// Package worker contains the dispatcher-side processors: consuming
// notification intents, sweeping for missed-contribution reminders and
// mirroring the ledger to the group spreadsheet.
package worker

import (
	"context"

	"horizon/internal/core"
	"horizon/internal/notify"
)

// ProfileReader loads member records for dispatch-time re-checks.
type ProfileReader interface {
	GetProfile(ctx context.Context, memberID string) (core.Profile, error)
}

// CandidateLister selects members eligible for the reminder sweep.
type CandidateLister interface {
	ListReminderCandidates(ctx context.Context, limit int) ([]core.Profile, error)
}

// LedgerReader reads a member's full ledger for attendance checks.
type LedgerReader interface {
	ListContributions(ctx context.Context, memberID string) ([]core.Contribution, error)
}

// Sender is the notification dispatch port, satisfied by notify.Notifier.
type Sender interface {
	Send(ctx context.Context, kind core.MessageKind, memberID, phoneNumber string, args notify.TemplateArgs) (core.DeliveryStatus, error)
}

// Throttle gates reminder dispatch to one per member per day.
type Throttle interface {
	Acquire(ctx context.Context, profile core.Profile, today core.Date) (bool, error)
}

// MirrorStore is the storage surface of the spreadsheet mirror backlog.
type MirrorStore interface {
	ListPendingMirror(ctx context.Context, limit int) ([]core.Contribution, error)
	MarkMirrored(ctx context.Context, contributionID string) error
	MarkMirrorError(ctx context.Context, contributionID string) error
	GetProfile(ctx context.Context, memberID string) (core.Profile, error)
}
