package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"horizon/internal/core"
)

func newTestSweep(store *fakeWorkerStore, sender *fakeSender, today core.Date) *ReminderSweep {
	dispatch := newTestDispatch(store, sender, newFakeThrottle(), today)
	sweep := NewReminderSweep(store, store, dispatch, 50, time.UTC)
	sweep.now = func() time.Time { return today.Time }
	return sweep
}

func contributionOn(memberID string, d core.Date) core.Contribution {
	return core.Contribution{
		ID:       memberID + "-" + d.String(),
		MemberID: memberID,
		Amount:   decimal.NewFromInt(100),
		Date:     d,
		Status:   core.StatusCompleted,
	}
}

func TestSweepRemindsLapsedMembers(t *testing.T) {
	store := newFakeWorkerStore()
	today := core.NewDate(2026, 3, 10)

	// m1 contributed five and three days ago: three missed days.
	store.profiles["m1"] = memberProfile("m1")
	store.contributions["m1"] = []core.Contribution{
		contributionOn("m1", today.AddDays(-5)),
		contributionOn("m1", today.AddDays(-3)),
	}

	// m2 is fully up to date through yesterday.
	store.profiles["m2"] = memberProfile("m2")
	for i := 1; i <= 4; i++ {
		store.contributions["m2"] = append(store.contributions["m2"], contributionOn("m2", today.AddDays(-i)))
	}

	// m3 has never contributed: nothing to remind about.
	store.profiles["m3"] = memberProfile("m3")

	sender := &fakeSender{}
	sweep := newTestSweep(store, sender, today)

	if err := sweep.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("sent %d reminders, want 1", len(sender.calls))
	}
	call := sender.calls[0]
	if call.kind != core.MessageMissedContribution || call.args.MissedDays != 3 {
		t.Errorf("call = %+v, want missed-contribution with 3 days", call)
	}
}

func TestSweepHonorsThrottle(t *testing.T) {
	store := newFakeWorkerStore()
	today := core.NewDate(2026, 3, 10)

	p := memberProfile("m1")
	p.LastMissedReminderSent = today
	store.profiles["m1"] = p
	store.contributions["m1"] = []core.Contribution{contributionOn("m1", today.AddDays(-5))}

	sender := &fakeSender{}
	sweep := newTestSweep(store, sender, today)

	if err := sweep.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.calls) != 0 {
		t.Error("member reminded today must be skipped")
	}
}

func TestSweepRunsTwiceWithoutDoubleSend(t *testing.T) {
	store := newFakeWorkerStore()
	today := core.NewDate(2026, 3, 10)
	store.profiles["m1"] = memberProfile("m1")
	store.contributions["m1"] = []core.Contribution{contributionOn("m1", today.AddDays(-5))}

	sender := &fakeSender{}
	throttle := newFakeThrottle()
	dispatch := newTestDispatch(store, sender, throttle, today)
	sweep := NewReminderSweep(store, store, dispatch, 50, time.UTC)
	sweep.now = func() time.Time { return today.Time }

	for i := 0; i < 2; i++ {
		if err := sweep.Run(context.Background()); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}
	if len(sender.calls) != 1 {
		t.Errorf("sent %d reminders across two sweeps, want 1", len(sender.calls))
	}
}
