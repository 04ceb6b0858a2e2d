package services

import (
	"context"
	"log/slog"

	"horizon/internal/amqp"
	"horizon/internal/core"
)

// MessageService manages administrator messages to members. Each created
// message also yields an SMS intent so the member hears about it off-app.
type MessageService struct {
	store     MessageStore
	publisher IntentPublisher
}

func NewMessageService(store MessageStore, publisher IntentPublisher) *MessageService {
	return &MessageService{store: store, publisher: publisher}
}

// Create stores a message for the member and publishes an admin
// notification intent. The message is persisted regardless of broker
// health.
func (s *MessageService) Create(ctx context.Context, memberID, text string, kind core.AdminMessageKind) (core.AdminMessage, error) {
	saved, err := s.store.InsertAdminMessage(ctx, core.AdminMessage{
		MemberID: memberID,
		Message:  text,
		Kind:     kind,
	})
	if err != nil {
		return core.AdminMessage{}, err
	}

	if s.publisher != nil {
		intent := amqp.NewNotificationIntent(memberID, core.MessageAdminNotification)
		intent.AdminText = text
		if err := s.publisher.PublishIntent(ctx, intent); err != nil {
			slog.ErrorContext(ctx, "Failed to publish admin notification",
				"member_id", memberID, "error", err)
		}
	}

	return saved, nil
}

// ListFor returns a member's messages, newest first.
func (s *MessageService) ListFor(ctx context.Context, memberID string, limit int) ([]core.AdminMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListAdminMessages(ctx, memberID, limit)
}

// MarkRead flags one message as read.
func (s *MessageService) MarkRead(ctx context.Context, messageID string) error {
	return s.store.MarkMessageRead(ctx, messageID)
}
