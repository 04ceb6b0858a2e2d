// Package services holds the application services between the HTTP
// surface and storage: the contribution ledger, the reminder throttle,
// group aggregation and admin messaging.
package services

import (
	"context"

	"github.com/shopspring/decimal"

	"horizon/internal/amqp"
	"horizon/internal/core"
)

// ContributionStore is the slice of storage the ledger service needs.
type ContributionStore interface {
	InsertContribution(ctx context.Context, c core.Contribution) (core.Contribution, error)
	ListContributions(ctx context.Context, memberID string) ([]core.Contribution, error)
	ListContributionsInRange(ctx context.Context, memberID string, start, end core.Date) ([]core.Contribution, error)
	TotalFor(ctx context.Context, memberID string) (decimal.Decimal, error)
}

// ProfileStore reads and updates member records. ClaimReminderSlot must
// be atomic: of any concurrent claims for the same member and day, exactly
// one may succeed.
type ProfileStore interface {
	GetProfile(ctx context.Context, memberID string) (core.Profile, error)
	ListProfiles(ctx context.Context) ([]core.Profile, error)
	ClaimReminderSlot(ctx context.Context, memberID string, day core.Date) (bool, error)
}

// GroupStore is the read surface for the administrator's group view.
type GroupStore interface {
	ListProfiles(ctx context.Context) ([]core.Profile, error)
	ListAllContributions(ctx context.Context) ([]core.Contribution, error)
	ListRecentContributions(ctx context.Context, limit int) ([]core.Contribution, error)
}

// MessageStore persists administrator messages.
type MessageStore interface {
	InsertAdminMessage(ctx context.Context, m core.AdminMessage) (core.AdminMessage, error)
	ListAdminMessages(ctx context.Context, memberID string, limit int) ([]core.AdminMessage, error)
	MarkMessageRead(ctx context.Context, messageID string) error
}

// IntentPublisher pushes notification intents onto the broker. Publishing
// is best-effort everywhere: a broker outage never fails a ledger write.
type IntentPublisher interface {
	PublishIntent(ctx context.Context, intent *amqp.NotificationIntent) error
}
