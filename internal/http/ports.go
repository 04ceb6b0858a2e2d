// Package http exposes the savings group over a small JSON API.
package http

import (
	"context"

	"horizon/internal/core"
	"horizon/internal/notify"
	"horizon/internal/services"
)

// Ledger is the contribution service surface the API serves.
type Ledger interface {
	Record(ctx context.Context, memberID string, date core.Date, notes string) (core.Contribution, error)
	Balance(ctx context.Context, memberID string) (core.Balance, error)
	Month(ctx context.Context, memberID string, day core.Date) ([]core.Contribution, error)
	MissedDays(ctx context.Context, memberID string) (int, error)
}

// Group provides the administrator's aggregate views.
type Group interface {
	Stats(ctx context.Context) (core.GroupStats, error)
	Recent(ctx context.Context, limit int) ([]services.RecentActivity, error)
}

// Messages is the admin messaging surface.
type Messages interface {
	Create(ctx context.Context, memberID, text string, kind core.AdminMessageKind) (core.AdminMessage, error)
	ListFor(ctx context.Context, memberID string, limit int) ([]core.AdminMessage, error)
	MarkRead(ctx context.Context, messageID string) error
}

// ProfileReader resolves member records for the direct-send endpoint and
// serves the administrator's delivery-log view.
type ProfileReader interface {
	GetProfile(ctx context.Context, memberID string) (core.Profile, error)
	ListSMSLogs(ctx context.Context, memberID string, limit int) ([]core.SMSLog, error)
}

// Sender dispatches one SMS, satisfied by notify.Notifier.
type Sender interface {
	Send(ctx context.Context, kind core.MessageKind, memberID, phoneNumber string, args notify.TemplateArgs) (core.DeliveryStatus, error)
}
