package services

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"horizon/internal/amqp"
	"horizon/internal/core"
)

// fakeStore is an in-memory stand-in for the sqlite repository covering
// every store port the services use.
type fakeStore struct {
	contributions []core.Contribution
	profiles      map[string]core.Profile
	messages      []core.AdminMessage

	insertErr   error
	totalErr    error
	reminderErr error

	reminderSet map[string]core.Date
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:    make(map[string]core.Profile),
		reminderSet: make(map[string]core.Date),
	}
}

func (f *fakeStore) InsertContribution(_ context.Context, c core.Contribution) (core.Contribution, error) {
	if f.insertErr != nil {
		return core.Contribution{}, f.insertErr
	}
	for _, existing := range f.contributions {
		if existing.MemberID == c.MemberID && existing.Date.Equal(c.Date) {
			return core.Contribution{}, core.ErrDuplicateEntry
		}
	}
	c.ID = "c" + strconv.Itoa(len(f.contributions)+1)
	f.contributions = append(f.contributions, c)
	return c, nil
}

func (f *fakeStore) ListContributions(_ context.Context, memberID string) ([]core.Contribution, error) {
	var out []core.Contribution
	for _, c := range f.contributions {
		if c.MemberID == memberID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListContributionsInRange(_ context.Context, memberID string, start, end core.Date) ([]core.Contribution, error) {
	var out []core.Contribution
	for _, c := range f.contributions {
		if c.MemberID == memberID && c.Date.InRange(start, end) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllContributions(_ context.Context) ([]core.Contribution, error) {
	return f.contributions, nil
}

func (f *fakeStore) ListRecentContributions(_ context.Context, limit int) ([]core.Contribution, error) {
	if limit > len(f.contributions) {
		limit = len(f.contributions)
	}
	return f.contributions[:limit], nil
}

func (f *fakeStore) TotalFor(_ context.Context, memberID string) (decimal.Decimal, error) {
	if f.totalErr != nil {
		return decimal.Zero, f.totalErr
	}
	total := decimal.Zero
	for _, c := range f.contributions {
		if c.MemberID == memberID {
			total = total.Add(c.Amount)
		}
	}
	return total, nil
}

func (f *fakeStore) GetProfile(_ context.Context, memberID string) (core.Profile, error) {
	p, ok := f.profiles[memberID]
	if !ok {
		return core.Profile{}, core.ErrUnknownMember
	}
	return p, nil
}

func (f *fakeStore) ListProfiles(_ context.Context) ([]core.Profile, error) {
	var out []core.Profile
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) ClaimReminderSlot(_ context.Context, memberID string, day core.Date) (bool, error) {
	if f.reminderErr != nil {
		return false, f.reminderErr
	}
	p, ok := f.profiles[memberID]
	if !ok {
		return false, nil
	}
	if !MayRemind(p.LastMissedReminderSent, day) {
		return false, nil
	}
	f.reminderSet[memberID] = day
	p.LastMissedReminderSent = day
	f.profiles[memberID] = p
	return true, nil
}

func (f *fakeStore) InsertAdminMessage(_ context.Context, m core.AdminMessage) (core.AdminMessage, error) {
	if err := m.Validate(); err != nil {
		return core.AdminMessage{}, err
	}
	m.ID = "msg" + strconv.Itoa(len(f.messages)+1)
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeStore) ListAdminMessages(_ context.Context, memberID string, limit int) ([]core.AdminMessage, error) {
	var out []core.AdminMessage
	for _, m := range f.messages {
		if m.MemberID == memberID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkMessageRead(_ context.Context, messageID string) error {
	for i := range f.messages {
		if f.messages[i].ID == messageID {
			f.messages[i].IsRead = true
			return nil
		}
	}
	return core.ErrUnknownMember
}

type fakePublisher struct {
	intents []*amqp.NotificationIntent
	err     error
}

func (f *fakePublisher) PublishIntent(_ context.Context, intent *amqp.NotificationIntent) error {
	if f.err != nil {
		return f.err
	}
	f.intents = append(f.intents, intent)
	return nil
}
