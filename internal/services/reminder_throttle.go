package services

import (
	"context"
	"fmt"

	"horizon/internal/core"
)

// MayRemind reports whether a missed-contribution reminder may go out
// today. At most one reminder per member per calendar day; a member never
// reminded before is always eligible.
func MayRemind(lastSent, today core.Date) bool {
	return lastSent.IsZero() || lastSent.Before(today)
}

// ReminderThrottle gates reminder dispatch to once per member per day and
// persists the throttle timestamp.
type ReminderThrottle struct {
	profiles ProfileStore
}

func NewReminderThrottle(profiles ProfileStore) *ReminderThrottle {
	return &ReminderThrottle{profiles: profiles}
}

// Acquire claims today's reminder slot for the member. It returns false
// when a reminder already went out today. On a claim the timestamp is
// persisted before any dispatch happens, so a failed delivery still
// counts against today: retries wait for tomorrow rather than spamming.
// The store-side claim is conditional, so the profile snapshot being
// stale cannot yield a second claim for the same day.
func (t *ReminderThrottle) Acquire(ctx context.Context, profile core.Profile, today core.Date) (bool, error) {
	if !MayRemind(profile.LastMissedReminderSent, today) {
		return false, nil
	}
	claimed, err := t.profiles.ClaimReminderSlot(ctx, profile.MemberID, today)
	if err != nil {
		return false, fmt.Errorf("claim reminder slot: %w", err)
	}
	return claimed, nil
}
