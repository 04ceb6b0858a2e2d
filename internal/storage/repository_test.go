package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"horizon/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "horizon.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedProfile(t *testing.T, repo *SQLiteRepository, memberID string) core.Profile {
	t.Helper()
	p := core.Profile{
		MemberID:       memberID,
		FullName:       "Member " + memberID,
		PhoneNumber:    "0712345678",
		BalanceVisible: true,
		DailyAmount:    decimal.NewFromInt(100),
		Adjustment:     decimal.Zero,
		SMSEnabled:     true,
	}
	if err := repo.UpsertProfile(context.Background(), p); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return p
}

func TestInsertContributionDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProfile(t, repo, "m1")

	c := core.Contribution{
		MemberID: "m1",
		Amount:   decimal.NewFromInt(100),
		Date:     core.NewDate(2025, 6, 10),
		Status:   core.StatusCompleted,
	}

	first, err := repo.InsertContribution(ctx, c)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if first.ID == "" {
		t.Error("insert should mint an ID")
	}

	// Same member, same calendar date: rejected by the schema.
	if _, err := repo.InsertContribution(ctx, c); !errors.Is(err, core.ErrDuplicateEntry) {
		t.Fatalf("second insert error = %v, want ErrDuplicateEntry", err)
	}

	all, err := repo.ListContributions(ctx, "m1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected exactly one row, got %d", len(all))
	}

	// A different date is fine.
	c.Date = core.NewDate(2025, 6, 11)
	if _, err := repo.InsertContribution(ctx, c); err != nil {
		t.Fatalf("different-date insert: %v", err)
	}
}

func TestTotalForAndRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProfile(t, repo, "m1")
	seedProfile(t, repo, "m2")

	for _, d := range []core.Date{
		core.NewDate(2025, 5, 30),
		core.NewDate(2025, 6, 1),
		core.NewDate(2025, 6, 15),
	} {
		if _, err := repo.InsertContribution(ctx, core.Contribution{
			MemberID: "m1",
			Amount:   decimal.RequireFromString("100.50"),
			Date:     d,
			Status:   core.StatusCompleted,
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if _, err := repo.InsertContribution(ctx, core.Contribution{
		MemberID: "m2",
		Amount:   decimal.NewFromInt(999),
		Date:     core.NewDate(2025, 6, 1),
		Status:   core.StatusCompleted,
	}); err != nil {
		t.Fatalf("insert other member: %v", err)
	}

	total, err := repo.TotalFor(ctx, "m1")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("301.50")) {
		t.Errorf("TotalFor = %v, want 301.50", total)
	}

	start, end := core.MonthRange(core.NewDate(2025, 6, 1))
	june, err := repo.ListContributionsInRange(ctx, "m1", start, end)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(june) != 2 {
		t.Fatalf("expected 2 june rows, got %d", len(june))
	}
	// Newest first for display.
	if !june[0].Date.After(june[1].Date) {
		t.Error("range listing should be date-descending")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seeded := seedProfile(t, repo, "m1")
	got, err := repo.GetProfile(ctx, "m1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.FullName != seeded.FullName || !got.SMSEnabled || !got.BalanceVisible {
		t.Errorf("profile round trip mismatch: %+v", got)
	}
	if !got.LastMissedReminderSent.IsZero() {
		t.Error("fresh profile should have no reminder timestamp")
	}

	if _, err := repo.GetProfile(ctx, "ghost"); !errors.Is(err, core.ErrUnknownMember) {
		t.Fatalf("unknown member error = %v, want ErrUnknownMember", err)
	}

	day := core.NewDate(2025, 6, 15)
	if claimed, err := repo.ClaimReminderSlot(ctx, "m1", day); err != nil || !claimed {
		t.Fatalf("ClaimReminderSlot = %v, %v; want claimed", claimed, err)
	}
	got, err = repo.GetProfile(ctx, "m1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if !got.LastMissedReminderSent.Equal(day) {
		t.Errorf("LastMissedReminderSent = %v, want %v", got.LastMissedReminderSent, day)
	}

	if err := repo.SetAdjustment(ctx, "m1", decimal.NewFromInt(-250)); err != nil {
		t.Fatalf("set adjustment: %v", err)
	}
	if err := repo.SetBalanceVisible(ctx, "m1", false); err != nil {
		t.Fatalf("set visibility: %v", err)
	}
	got, _ = repo.GetProfile(ctx, "m1")
	if !got.Adjustment.Equal(decimal.NewFromInt(-250)) || got.BalanceVisible {
		t.Errorf("admin updates not persisted: %+v", got)
	}

	if err := repo.SetAdjustment(ctx, "ghost", decimal.Zero); !errors.Is(err, core.ErrUnknownMember) {
		t.Fatalf("adjusting unknown member error = %v, want ErrUnknownMember", err)
	}
}

func TestReminderCandidatesFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedProfile(t, repo, "m1")

	noSMS := seedProfile(t, repo, "m2")
	noSMS.SMSEnabled = false
	if err := repo.UpsertProfile(ctx, noSMS); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	noPhone := seedProfile(t, repo, "m3")
	noPhone.PhoneNumber = ""
	if err := repo.UpsertProfile(ctx, noPhone); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	admin := seedProfile(t, repo, "boss")
	admin.IsAdmin = true
	if err := repo.UpsertProfile(ctx, admin); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	candidates, err := repo.ListReminderCandidates(ctx, 100)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].MemberID != "m1" {
		t.Errorf("candidates = %+v, want only m1", candidates)
	}
}

func TestClaimReminderSlotOncePerDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProfile(t, repo, "m1")

	day := core.NewDate(2025, 6, 15)
	claimed, err := repo.ClaimReminderSlot(ctx, "m1", day)
	if err != nil || !claimed {
		t.Fatalf("first claim = %v, %v; want claimed", claimed, err)
	}

	// A competing claim for the same day must lose, even when its caller
	// read the profile before the first claim landed.
	claimed, err = repo.ClaimReminderSlot(ctx, "m1", day)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Error("second claim for the same day must be refused")
	}

	claimed, err = repo.ClaimReminderSlot(ctx, "m1", day.AddDays(1))
	if err != nil || !claimed {
		t.Errorf("next-day claim = %v, %v; want claimed", claimed, err)
	}

	if claimed, err := repo.ClaimReminderSlot(ctx, "ghost", day); err != nil || claimed {
		t.Errorf("unknown member claim = %v, %v; want refused without error", claimed, err)
	}
}

func TestSMSLogAppend(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProfile(t, repo, "m1")

	entries := []core.SMSLog{
		{MemberID: "m1", PhoneNumber: "254712345678", Message: "hello", MessageType: core.MessageMissedContribution, Status: core.DeliverySent},
		{MemberID: "m1", PhoneNumber: "254712345678", Message: "again", MessageType: core.MessageSuccessfulContribution, Status: core.DeliveryFailed},
	}
	for _, e := range entries {
		if err := repo.InsertSMSLog(ctx, e); err != nil {
			t.Fatalf("insert log: %v", err)
		}
	}

	logs, err := repo.ListSMSLogs(ctx, "m1", 10)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 log rows, got %d", len(logs))
	}
}

func TestAdminMessages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProfile(t, repo, "m1")

	msg, err := repo.InsertAdminMessage(ctx, core.AdminMessage{
		MemberID: "m1",
		Message:  "meeting on Friday",
		Kind:     core.AdminMessageAnnouncement,
	})
	if err != nil {
		t.Fatalf("insert message: %v", err)
	}

	list, err := repo.ListAdminMessages(ctx, "m1", 5)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(list) != 1 || list[0].IsRead {
		t.Fatalf("unexpected messages: %+v", list)
	}

	if err := repo.MarkMessageRead(ctx, msg.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	list, _ = repo.ListAdminMessages(ctx, "m1", 5)
	if !list[0].IsRead {
		t.Error("message should be read")
	}

	if err := repo.MarkMessageRead(ctx, "nope"); err == nil {
		t.Error("marking a missing message should fail")
	}
}

func TestMirrorBacklog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProfile(t, repo, "m1")

	c, err := repo.InsertContribution(ctx, core.Contribution{
		MemberID: "m1",
		Amount:   decimal.NewFromInt(100),
		Date:     core.NewDate(2025, 6, 10),
		Status:   core.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	pending, err := repo.ListPendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(pending))
	}

	if err := repo.MarkMirrored(ctx, c.ID); err != nil {
		t.Fatalf("mark mirrored: %v", err)
	}
	pending, _ = repo.ListPendingMirror(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("expected empty backlog, got %d", len(pending))
	}
}
