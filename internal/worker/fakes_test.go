package worker

import (
	"context"

	"horizon/internal/core"
	"horizon/internal/notify"
)

type sentCall struct {
	kind  core.MessageKind
	phone string
	args  notify.TemplateArgs
}

type fakeSender struct {
	calls []sentCall
	err   error
}

func (f *fakeSender) Send(_ context.Context, kind core.MessageKind, _, phoneNumber string, args notify.TemplateArgs) (core.DeliveryStatus, error) {
	f.calls = append(f.calls, sentCall{kind: kind, phone: phoneNumber, args: args})
	if f.err != nil {
		return core.DeliveryFailed, f.err
	}
	return core.DeliverySent, nil
}

type fakeThrottle struct {
	claimed map[string]core.Date
	err     error
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{claimed: make(map[string]core.Date)}
}

func (f *fakeThrottle) Acquire(_ context.Context, profile core.Profile, today core.Date) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if last, ok := f.claimed[profile.MemberID]; ok && !last.Before(today) {
		return false, nil
	}
	if !profile.LastMissedReminderSent.IsZero() && !profile.LastMissedReminderSent.Before(today) {
		return false, nil
	}
	f.claimed[profile.MemberID] = today
	return true, nil
}

type fakeWorkerStore struct {
	profiles      map[string]core.Profile
	contributions map[string][]core.Contribution

	pending     []core.Contribution
	mirrored    []string
	mirrorError []string
}

func newFakeWorkerStore() *fakeWorkerStore {
	return &fakeWorkerStore{
		profiles:      make(map[string]core.Profile),
		contributions: make(map[string][]core.Contribution),
	}
}

func (f *fakeWorkerStore) GetProfile(_ context.Context, memberID string) (core.Profile, error) {
	p, ok := f.profiles[memberID]
	if !ok {
		return core.Profile{}, core.ErrUnknownMember
	}
	return p, nil
}

func (f *fakeWorkerStore) ListReminderCandidates(_ context.Context, limit int) ([]core.Profile, error) {
	var out []core.Profile
	for _, p := range f.profiles {
		if p.SMSEnabled && p.PhoneNumber != "" && !p.IsAdmin && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeWorkerStore) ListContributions(_ context.Context, memberID string) ([]core.Contribution, error) {
	return f.contributions[memberID], nil
}

func (f *fakeWorkerStore) ListPendingMirror(_ context.Context, limit int) ([]core.Contribution, error) {
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	return f.pending[:limit], nil
}

func (f *fakeWorkerStore) MarkMirrored(_ context.Context, contributionID string) error {
	f.mirrored = append(f.mirrored, contributionID)
	return nil
}

func (f *fakeWorkerStore) MarkMirrorError(_ context.Context, contributionID string) error {
	f.mirrorError = append(f.mirrorError, contributionID)
	return nil
}
