package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"horizon/internal/core"
)

var errUnknownKind = errors.New("unknown notification kind")

// NotificationIntent is the outbox message emitted by ledger-mutating
// operations. It carries the target and kind plus the template arguments the
// dispatcher needs; the dispatcher re-reads the profile for phone number and
// throttle state so stale intents cannot bypass either.
type NotificationIntent struct {
	MemberID   string           `json:"member_id"`
	Kind       core.MessageKind `json:"kind"`
	Amount     string           `json:"amount,omitempty"`
	Balance    string           `json:"balance,omitempty"`
	MissedDays int              `json:"missed_days,omitempty"`
	AdminText  string           `json:"admin_text,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewNotificationIntent creates an intent stamped with the current time.
func NewNotificationIntent(memberID string, kind core.MessageKind) *NotificationIntent {
	return &NotificationIntent{
		MemberID:  memberID,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the intent to JSON bytes.
func (m *NotificationIntent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// IntentFromJSON creates an intent from JSON bytes.
func IntentFromJSON(data []byte) (*NotificationIntent, error) {
	var msg NotificationIntent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", errUnknownKind, msg.Kind)
	}
	return &msg, nil
}
