package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"horizon/internal/amqp"
	"horizon/internal/core"
)

// ContributionService owns the daily ledger: recording contributions,
// computing balances and missed days, and emitting notification intents.
type ContributionService struct {
	store     ContributionStore
	profiles  ProfileStore
	publisher IntentPublisher
	loc       *time.Location
	now       func() time.Time
}

func NewContributionService(store ContributionStore, profiles ProfileStore, publisher IntentPublisher, loc *time.Location) *ContributionService {
	if loc == nil {
		loc = time.UTC
	}
	return &ContributionService{
		store:     store,
		profiles:  profiles,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *ContributionService) today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

// Record appends one contribution for the member on the given date. The
// amount comes from the member's configured daily amount. A second record
// for the same day returns core.ErrDuplicateEntry with the ledger
// untouched; a date after today in the group's timezone returns
// core.ErrFutureDate. On success a confirmation intent is published; a
// broker failure is logged and the recorded contribution is still
// returned.
func (s *ContributionService) Record(ctx context.Context, memberID string, date core.Date, notes string) (core.Contribution, error) {
	if err := date.Validate(); err != nil {
		return core.Contribution{}, err
	}
	if date.After(s.today()) {
		return core.Contribution{}, core.ErrFutureDate
	}

	profile, err := s.profiles.GetProfile(ctx, memberID)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("load profile: %w", err)
	}

	saved, err := s.store.InsertContribution(ctx, core.Contribution{
		MemberID: memberID,
		Amount:   profile.EffectiveDailyAmount(),
		Date:     date,
		Status:   core.StatusCompleted,
		Notes:    notes,
	})
	if err != nil {
		return core.Contribution{}, err
	}

	s.publishConfirmation(ctx, profile, saved)
	return saved, nil
}

// publishConfirmation emits a successful-contribution intent carrying the
// amount and the member's new balance. The dispatcher re-reads the profile
// before sending, so the intent only needs template values.
func (s *ContributionService) publishConfirmation(ctx context.Context, profile core.Profile, c core.Contribution) {
	if s.publisher == nil {
		return
	}

	total, err := s.store.TotalFor(ctx, profile.MemberID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to compute balance for confirmation",
			"member_id", profile.MemberID, "error", err)
		return
	}

	intent := amqp.NewNotificationIntent(profile.MemberID, core.MessageSuccessfulContribution)
	intent.Amount = c.Amount.String()
	intent.Balance = core.AdminBalance(total, profile.Adjustment).String()

	if err := s.publisher.PublishIntent(ctx, intent); err != nil {
		slog.ErrorContext(ctx, "Failed to publish contribution confirmation",
			"member_id", profile.MemberID, "error", err)
	}
}

// Balance returns the member's gated balance view. Administrators viewing
// their own balance bypass the visibility gate like everyone else; use
// RealBalance for the admin view of another member.
func (s *ContributionService) Balance(ctx context.Context, memberID string) (core.Balance, error) {
	profile, err := s.profiles.GetProfile(ctx, memberID)
	if err != nil {
		return core.Balance{}, err
	}
	total, err := s.store.TotalFor(ctx, memberID)
	if err != nil {
		return core.Balance{}, err
	}
	return core.DisplayBalance(total, profile.Adjustment, profile.BalanceVisible), nil
}

// RealBalance returns the ungated balance for administrator screens.
func (s *ContributionService) RealBalance(ctx context.Context, memberID string) (core.Balance, error) {
	profile, err := s.profiles.GetProfile(ctx, memberID)
	if err != nil {
		return core.Balance{}, err
	}
	total, err := s.store.TotalFor(ctx, memberID)
	if err != nil {
		return core.Balance{}, err
	}
	return core.Balance{Amount: core.AdminBalance(total, profile.Adjustment), Visible: true}, nil
}

// Month returns the member's contributions for the month containing day,
// newest first.
func (s *ContributionService) Month(ctx context.Context, memberID string, day core.Date) ([]core.Contribution, error) {
	start, end := core.MonthRange(day)
	return s.store.ListContributionsInRange(ctx, memberID, start, end)
}

// MissedDays computes how many days the member has skipped since their
// first contribution, counting through yesterday. A member with an empty
// ledger has missed nothing.
func (s *ContributionService) MissedDays(ctx context.Context, memberID string) (int, error) {
	contributions, err := s.store.ListContributions(ctx, memberID)
	if err != nil {
		return 0, err
	}
	return core.MissedDays(contributions, s.today()), nil
}
