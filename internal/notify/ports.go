package notify

import (
	"context"

	"horizon/internal/core"
)

// Ports for outbound collaborators.
type (
	// Transport is the SMS gateway. Deliver is invoked exactly once per
	// dispatch attempt; all gateway errors are treated uniformly as a
	// failed delivery, never retried here.
	Transport interface {
		Deliver(ctx context.Context, canonicalNumber, message string) error
	}

	// DispatchLog persists one append-only entry per dispatch attempt.
	DispatchLog interface {
		InsertSMSLog(ctx context.Context, entry core.SMSLog) error
	}
)
