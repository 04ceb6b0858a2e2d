package services

import (
	"context"
	"errors"
	"testing"

	"horizon/internal/core"
)

func TestMessageCreatePublishesIntent(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewMessageService(store, pub)

	saved, err := svc.Create(context.Background(), "m1", "bring your passbook", core.AdminMessageInfo)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if saved.ID == "" || saved.IsRead {
		t.Errorf("saved = %+v", saved)
	}

	if len(pub.intents) != 1 {
		t.Fatalf("published %d intents, want 1", len(pub.intents))
	}
	intent := pub.intents[0]
	if intent.Kind != core.MessageAdminNotification || intent.AdminText != "bring your passbook" {
		t.Errorf("intent = %+v", intent)
	}
}

func TestMessageCreateEmptyText(t *testing.T) {
	store := newFakeStore()
	svc := NewMessageService(store, nil)

	_, err := svc.Create(context.Background(), "m1", "   ", core.AdminMessageInfo)
	if !errors.Is(err, core.ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestMessageCreateSurvivesPublishFailure(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewMessageService(store, pub)

	if _, err := svc.Create(context.Background(), "m1", "meeting at six", core.AdminMessageAnnouncement); err != nil {
		t.Fatalf("Create must not fail on publish error: %v", err)
	}
	if len(store.messages) != 1 {
		t.Error("message must be persisted despite broker outage")
	}
}

func TestMessageReadFlow(t *testing.T) {
	store := newFakeStore()
	svc := NewMessageService(store, nil)

	saved, err := svc.Create(context.Background(), "m1", "well done", core.AdminMessageInfo)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.MarkRead(context.Background(), saved.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	msgs, err := svc.ListFor(context.Background(), "m1", 0)
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(msgs) != 1 || !msgs[0].IsRead {
		t.Errorf("messages = %+v, want one read message", msgs)
	}
}
