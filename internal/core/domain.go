package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusCompleted ContributionStatus = "completed"
	StatusPending   ContributionStatus = "pending"
)

const (
	MessageMissedContribution     MessageKind = "missed_contribution"
	MessageSuccessfulContribution MessageKind = "successful_contribution"
	MessageAdminNotification      MessageKind = "admin_notification"
)

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

const (
	AdminMessageInfo         AdminMessageKind = "info"
	AdminMessageWarning      AdminMessageKind = "warning"
	AdminMessageAnnouncement AdminMessageKind = "announcement"
)

type (
	ContributionStatus string
	MessageKind        string
	DeliveryStatus     string
	AdminMessageKind   string

	// Contribution is a single dated deposit record. At most one exists per
	// (MemberID, Date); rows are never mutated or deleted by normal flow.
	Contribution struct {
		ID        string
		MemberID  string
		Amount    decimal.Decimal
		Date      Date
		Status    ContributionStatus
		Notes     string
		CreatedAt time.Time
	}

	// Profile is the member record the ledger operates on. Adjustment and
	// BalanceVisible are administrator-controlled; LastMissedReminderSent is
	// written only by the reminder throttle.
	Profile struct {
		MemberID               string
		FullName               string
		PhoneNumber            string
		BalanceVisible         bool
		DailyAmount            decimal.Decimal
		Adjustment             decimal.Decimal
		SMSEnabled             bool
		IsAdmin                bool
		LastMissedReminderSent Date
	}

	// SMSLog is one append-only delivery-log entry. Exactly one is written
	// per dispatch attempt, whatever the outcome.
	SMSLog struct {
		MemberID    string
		PhoneNumber string
		Message     string
		MessageType MessageKind
		Status      DeliveryStatus
		CreatedAt   time.Time
	}

	// AdminMessage is an administrator-authored message to one member.
	AdminMessage struct {
		ID        string
		MemberID  string
		Message   string
		Kind      AdminMessageKind
		IsRead    bool
		CreatedAt time.Time
	}
)

// DefaultDailyAmount is the fallback daily contribution when a profile has
// none configured (KES).
var DefaultDailyAmount = decimal.NewFromInt(100)

var (
	ErrDuplicateEntry     = errors.New("contribution already recorded for this date")
	ErrFutureDate         = errors.New("cannot contribute for a future date")
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrTransportFailure   = errors.New("sms transport failure")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyMessage       = errors.New("empty message")
	ErrUnknownMember      = errors.New("unknown member")
)

func (s ContributionStatus) Valid() bool {
	return s == StatusCompleted || s == StatusPending
}

func (k MessageKind) Valid() bool {
	switch k {
	case MessageMissedContribution, MessageSuccessfulContribution, MessageAdminNotification:
		return true
	}
	return false
}

func (k AdminMessageKind) Valid() bool {
	switch k {
	case AdminMessageInfo, AdminMessageWarning, AdminMessageAnnouncement:
		return true
	}
	return false
}

func (c Contribution) Validate() error {
	if strings.TrimSpace(c.MemberID) == "" {
		return ErrUnknownMember
	}
	if err := c.Date.Validate(); err != nil {
		return err
	}
	if c.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !c.Status.Valid() {
		return errors.New("invalid contribution status")
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.MemberID) == "" {
		return ErrUnknownMember
	}
	if strings.TrimSpace(p.FullName) == "" {
		return errors.New("empty member name")
	}
	if p.DailyAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// EffectiveDailyAmount returns the configured daily contribution, falling
// back to the group default when unset.
func (p Profile) EffectiveDailyAmount() decimal.Decimal {
	if p.DailyAmount.Sign() > 0 {
		return p.DailyAmount
	}
	return DefaultDailyAmount
}

func (m AdminMessage) Validate() error {
	if strings.TrimSpace(m.MemberID) == "" {
		return ErrUnknownMember
	}
	if strings.TrimSpace(m.Message) == "" {
		return ErrEmptyMessage
	}
	if !m.Kind.Valid() {
		return errors.New("invalid message kind")
	}
	return nil
}
