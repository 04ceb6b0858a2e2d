package notify

import (
	"context"
	"fmt"
	"log/slog"

	"horizon/internal/core"
)

// Notifier composes message text, invokes the SMS transport once, and
// always writes exactly one delivery-log entry whose status mirrors the
// outcome. Notification is best-effort: nothing here may fail the ledger
// operation that triggered it.
type Notifier struct {
	transport Transport
	logs      DispatchLog
}

func NewNotifier(transport Transport, logs DispatchLog) *Notifier {
	return &Notifier{transport: transport, logs: logs}
}

// Send dispatches one message. The returned status is what was logged; the
// error explains a failed outcome (core.ErrInvalidPhoneNumber or
// core.ErrTransportFailure) and is for the caller's own logging;
// member-facing flows must not surface it.
func (n *Notifier) Send(ctx context.Context, kind core.MessageKind, memberID, phoneNumber string, args TemplateArgs) (core.DeliveryStatus, error) {
	message := RenderMessage(kind, args)

	canonical, err := core.NormalizePhone(phoneNumber)
	if err != nil {
		// No transport attempt, but the attempt itself is still logged.
		n.logAttempt(ctx, memberID, phoneNumber, message, kind, core.DeliveryFailed)
		return core.DeliveryFailed, err
	}

	if err := n.transport.Deliver(ctx, canonical, message); err != nil {
		n.logAttempt(ctx, memberID, phoneNumber, message, kind, core.DeliveryFailed)
		return core.DeliveryFailed, fmt.Errorf("%w: %v", core.ErrTransportFailure, err)
	}

	n.logAttempt(ctx, memberID, phoneNumber, message, kind, core.DeliverySent)
	return core.DeliverySent, nil
}

// logAttempt appends the delivery-log entry. A log-write failure is
// swallowed: the delivery outcome stands and dependent flow continues.
func (n *Notifier) logAttempt(ctx context.Context, memberID, phoneNumber, message string, kind core.MessageKind, status core.DeliveryStatus) {
	entry := core.SMSLog{
		MemberID:    memberID,
		PhoneNumber: phoneNumber,
		Message:     message,
		MessageType: kind,
		Status:      status,
	}
	if err := n.logs.InsertSMSLog(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "Failed to write delivery log",
			"member_id", memberID,
			"message_type", kind,
			"status", status,
			"error", err)
	}
}
