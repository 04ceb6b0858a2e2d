package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"horizon/internal/amqp"
	"horizon/internal/core"
	"horizon/internal/notify"
)

// DispatchWorker turns notification intents into SMS dispatches. It
// re-reads the member's profile on every intent so opt-outs, number
// changes and throttle state observed at dispatch time win over whatever
// was true when the intent was published.
type DispatchWorker struct {
	profiles ProfileReader
	sender   Sender
	throttle Throttle
	loc      *time.Location
	now      func() time.Time
}

func NewDispatchWorker(profiles ProfileReader, sender Sender, throttle Throttle, loc *time.Location) *DispatchWorker {
	if loc == nil {
		loc = time.UTC
	}
	return &DispatchWorker{
		profiles: profiles,
		sender:   sender,
		throttle: throttle,
		loc:      loc,
		now:      time.Now,
	}
}

func (w *DispatchWorker) today() core.Date {
	return core.DateOf(w.now().In(w.loc))
}

// HandleIntent processes one intent. A nil return acknowledges the
// message; an error requeues it. Only failures before any dispatch
// attempt requeue: once the transport has been tried the delivery log
// already records the outcome and a redelivery would double-send.
func (w *DispatchWorker) HandleIntent(ctx context.Context, intent *amqp.NotificationIntent) error {
	profile, err := w.profiles.GetProfile(ctx, intent.MemberID)
	if errors.Is(err, core.ErrUnknownMember) {
		slog.WarnContext(ctx, "Dropping intent for unknown member",
			"member_id", intent.MemberID, "kind", intent.Kind)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile for intent: %w", err)
	}

	if !profile.SMSEnabled || profile.PhoneNumber == "" {
		slog.InfoContext(ctx, "Skipping intent, member not reachable by SMS",
			"member_id", intent.MemberID,
			"kind", intent.Kind,
			"sms_enabled", profile.SMSEnabled)
		return nil
	}

	if intent.Kind == core.MessageMissedContribution {
		ok, err := w.throttle.Acquire(ctx, profile, w.today())
		if err != nil {
			return fmt.Errorf("reminder throttle: %w", err)
		}
		if !ok {
			slog.InfoContext(ctx, "Reminder already sent today", "member_id", intent.MemberID)
			return nil
		}
	}

	args := notify.TemplateArgs{
		Name:       profile.FullName,
		Amount:     intent.Amount,
		Balance:    intent.Balance,
		MissedDays: intent.MissedDays,
		AdminText:  intent.AdminText,
	}

	status, err := w.sender.Send(ctx, intent.Kind, intent.MemberID, profile.PhoneNumber, args)
	if err != nil {
		slog.ErrorContext(ctx, "Dispatch failed",
			"member_id", intent.MemberID,
			"kind", intent.Kind,
			"status", status,
			"error", err)
		return nil
	}

	slog.InfoContext(ctx, "Notification dispatched",
		"member_id", intent.MemberID,
		"kind", intent.Kind,
		"status", status)
	return nil
}
