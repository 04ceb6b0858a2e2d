package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"horizon/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the storage collaborator for profiles, contributions,
// delivery logs and admin messages. The (member_id, contribution_date)
// uniqueness invariant is enforced by the schema, not by application-level
// locking; a racing duplicate insert surfaces as core.ErrDuplicateEntry.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// storageErr tags an underlying database failure with the domain sentinel so
// callers can report a generic storage outage without inspecting SQL errors.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, core.ErrStorageUnavailable, err)
}

// InsertContribution appends one ledger row. The schema's unique index turns
// a same-day re-insert into core.ErrDuplicateEntry; nothing else is touched.
func (r *SQLiteRepository) InsertContribution(ctx context.Context, c core.Contribution) (core.Contribution, error) {
	if err := c.Validate(); err != nil {
		return core.Contribution{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contributions (id, member_id, amount, contribution_date, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.MemberID, c.Amount.String(), c.Date.String(), string(c.Status), c.Notes, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Contribution{}, core.ErrDuplicateEntry
		}
		return core.Contribution{}, storageErr("insert contribution", err)
	}

	slog.InfoContext(ctx, "Contribution saved",
		"id", c.ID,
		"member_id", c.MemberID,
		"date", c.Date.String(),
		"amount", c.Amount.String())

	return c, nil
}

// ListContributions returns every ledger row for one member, newest first.
func (r *SQLiteRepository) ListContributions(ctx context.Context, memberID string) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, amount, contribution_date, status, notes, created_at
		FROM contributions WHERE member_id = ?
		ORDER BY contribution_date DESC`, memberID)
	if err != nil {
		return nil, storageErr("list contributions", err)
	}
	defer rows.Close()
	return scanContributions(rows)
}

// ListContributionsInRange filters one member's ledger to [start, end]
// inclusive by calendar date, newest first.
func (r *SQLiteRepository) ListContributionsInRange(ctx context.Context, memberID string, start, end core.Date) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, amount, contribution_date, status, notes, created_at
		FROM contributions
		WHERE member_id = ? AND contribution_date >= ? AND contribution_date <= ?
		ORDER BY contribution_date DESC`, memberID, start.String(), end.String())
	if err != nil {
		return nil, storageErr("list contributions in range", err)
	}
	defer rows.Close()
	return scanContributions(rows)
}

// ListAllContributions returns the whole group ledger, newest first. Admin
// aggregation reads this as a snapshot; no locking is taken.
func (r *SQLiteRepository) ListAllContributions(ctx context.Context) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, amount, contribution_date, status, notes, created_at
		FROM contributions ORDER BY contribution_date DESC`)
	if err != nil {
		return nil, storageErr("list all contributions", err)
	}
	defer rows.Close()
	return scanContributions(rows)
}

// ListRecentContributions returns the newest rows across all members.
func (r *SQLiteRepository) ListRecentContributions(ctx context.Context, limit int) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, amount, contribution_date, status, notes, created_at
		FROM contributions ORDER BY contribution_date DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list recent contributions", err)
	}
	defer rows.Close()
	return scanContributions(rows)
}

// TotalFor sums a member's recorded amounts. Summation happens in Go so
// decimal amounts are never coerced through floating point.
func (r *SQLiteRepository) TotalFor(ctx context.Context, memberID string) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT amount FROM contributions WHERE member_id = ?`, memberID)
	if err != nil {
		return decimal.Zero, storageErr("total contributions", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, storageErr("scan amount", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("malformed amount %q for member %s: %w", raw, memberID, core.ErrInvalidAmount)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, storageErr("total contributions", err)
	}
	return total, nil
}

// GetProfile loads one member record. An unknown member maps to
// core.ErrUnknownMember.
func (r *SQLiteRepository) GetProfile(ctx context.Context, memberID string) (core.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT member_id, full_name, phone_number, balance_visible, daily_amount,
		       adjustment, sms_enabled, is_admin, last_missed_reminder_sent
		FROM profiles WHERE member_id = ?`, memberID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.ErrUnknownMember
	}
	if err != nil {
		return core.Profile{}, storageErr("get profile", err)
	}
	return p, nil
}

// ListProfiles returns every member record.
func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT member_id, full_name, phone_number, balance_visible, daily_amount,
		       adjustment, sms_enabled, is_admin, last_missed_reminder_sent
		FROM profiles ORDER BY full_name`)
	if err != nil {
		return nil, storageErr("list profiles", err)
	}
	defer rows.Close()

	var profiles []core.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, storageErr("scan profile", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list profiles", err)
	}
	return profiles, nil
}

// ListReminderCandidates returns non-admin profiles with SMS enabled and a
// phone number on file, for the periodic missed-day sweep.
func (r *SQLiteRepository) ListReminderCandidates(ctx context.Context, limit int) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT member_id, full_name, phone_number, balance_visible, daily_amount,
		       adjustment, sms_enabled, is_admin, last_missed_reminder_sent
		FROM profiles
		WHERE sms_enabled = 1 AND phone_number != '' AND is_admin = 0
		LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list reminder candidates", err)
	}
	defer rows.Close()

	var profiles []core.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, storageErr("scan profile", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list reminder candidates", err)
	}
	return profiles, nil
}

// UpsertProfile creates or replaces a member record. Used for seeding and by
// administrator edits.
func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	var lastSent any
	if !p.LastMissedReminderSent.IsZero() {
		lastSent = p.LastMissedReminderSent.String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (member_id, full_name, phone_number, balance_visible, daily_amount,
		                      adjustment, sms_enabled, is_admin, last_missed_reminder_sent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id) DO UPDATE SET
			full_name = excluded.full_name,
			phone_number = excluded.phone_number,
			balance_visible = excluded.balance_visible,
			daily_amount = excluded.daily_amount,
			adjustment = excluded.adjustment,
			sms_enabled = excluded.sms_enabled,
			is_admin = excluded.is_admin,
			last_missed_reminder_sent = excluded.last_missed_reminder_sent`,
		p.MemberID, p.FullName, p.PhoneNumber, boolToInt(p.BalanceVisible), p.DailyAmount.String(),
		p.Adjustment.String(), boolToInt(p.SMSEnabled), boolToInt(p.IsAdmin), lastSent)
	if err != nil {
		return storageErr("upsert profile", err)
	}
	return nil
}

// SetAdjustment records an administrator balance correction.
func (r *SQLiteRepository) SetAdjustment(ctx context.Context, memberID string, adjustment decimal.Decimal) error {
	return r.updateProfileField(ctx, memberID, "adjustment", adjustment.String())
}

// SetBalanceVisible toggles the member's balance visibility gate.
func (r *SQLiteRepository) SetBalanceVisible(ctx context.Context, memberID string, visible bool) error {
	return r.updateProfileField(ctx, memberID, "balance_visible", boolToInt(visible))
}

// ClaimReminderSlot persists the throttle timestamp for day, but only if
// no reminder went out on or after that day. The conditional update makes
// the claim atomic: of any concurrent claims for the same member and day,
// exactly one sees an affected row. Written when a reminder dispatch is
// attempted, before the outcome is known.
func (r *SQLiteRepository) ClaimReminderSlot(ctx context.Context, memberID string, day core.Date) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET last_missed_reminder_sent = ?
		WHERE member_id = ?
		  AND (last_missed_reminder_sent IS NULL OR last_missed_reminder_sent < ?)`,
		day.String(), memberID, day.String())
	if err != nil {
		return false, storageErr("claim reminder slot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("claim reminder slot", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) updateProfileField(ctx context.Context, memberID, column string, value any) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE profiles SET %s = ? WHERE member_id = ?", column), value, memberID)
	if err != nil {
		return storageErr("update profile "+column, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrUnknownMember
	}
	return nil
}

// InsertSMSLog appends one delivery-log entry.
func (r *SQLiteRepository) InsertSMSLog(ctx context.Context, entry core.SMSLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sms_logs (member_id, phone_number, message, message_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.MemberID, entry.PhoneNumber, entry.Message, string(entry.MessageType), string(entry.Status), entry.CreatedAt)
	if err != nil {
		return storageErr("insert sms log", err)
	}
	return nil
}

// ListSMSLogs returns a member's delivery log, newest first.
func (r *SQLiteRepository) ListSMSLogs(ctx context.Context, memberID string, limit int) ([]core.SMSLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT member_id, phone_number, message, message_type, status, created_at
		FROM sms_logs WHERE member_id = ?
		ORDER BY created_at DESC LIMIT ?`, memberID, limit)
	if err != nil {
		return nil, storageErr("list sms logs", err)
	}
	defer rows.Close()

	var logs []core.SMSLog
	for rows.Next() {
		var entry core.SMSLog
		var msgType, status string
		if err := rows.Scan(&entry.MemberID, &entry.PhoneNumber, &entry.Message, &msgType, &status, &entry.CreatedAt); err != nil {
			return nil, storageErr("scan sms log", err)
		}
		entry.MessageType = core.MessageKind(msgType)
		entry.Status = core.DeliveryStatus(status)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list sms logs", err)
	}
	return logs, nil
}

// InsertAdminMessage stores an administrator-authored message for a member.
func (r *SQLiteRepository) InsertAdminMessage(ctx context.Context, m core.AdminMessage) (core.AdminMessage, error) {
	if err := m.Validate(); err != nil {
		return core.AdminMessage{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_messages (id, member_id, message, message_type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.MemberID, m.Message, string(m.Kind), boolToInt(m.IsRead), m.CreatedAt)
	if err != nil {
		return core.AdminMessage{}, storageErr("insert admin message", err)
	}
	return m, nil
}

// ListAdminMessages returns a member's messages, newest first.
func (r *SQLiteRepository) ListAdminMessages(ctx context.Context, memberID string, limit int) ([]core.AdminMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, message, message_type, is_read, created_at
		FROM admin_messages WHERE member_id = ?
		ORDER BY created_at DESC LIMIT ?`, memberID, limit)
	if err != nil {
		return nil, storageErr("list admin messages", err)
	}
	defer rows.Close()

	var messages []core.AdminMessage
	for rows.Next() {
		var m core.AdminMessage
		var kind string
		var isRead int
		if err := rows.Scan(&m.ID, &m.MemberID, &m.Message, &kind, &isRead, &m.CreatedAt); err != nil {
			return nil, storageErr("scan admin message", err)
		}
		m.Kind = core.AdminMessageKind(kind)
		m.IsRead = isRead != 0
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list admin messages", err)
	}
	return messages, nil
}

// MarkMessageRead flags one admin message as read by the member.
func (r *SQLiteRepository) MarkMessageRead(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admin_messages SET is_read = 1 WHERE id = ?`, messageID)
	if err != nil {
		return storageErr("mark message read", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark message read: no such message %s", messageID)
	}
	return nil
}

// ListPendingMirror returns contributions not yet mirrored to the group
// spreadsheet.
func (r *SQLiteRepository) ListPendingMirror(ctx context.Context, limit int) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, amount, contribution_date, status, notes, created_at
		FROM contributions WHERE mirror_status = 0
		ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list pending mirror", err)
	}
	defer rows.Close()
	return scanContributions(rows)
}

// MarkMirrored records a successful spreadsheet append for a contribution.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, contributionID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contributions SET mirror_status = 1 WHERE id = ?`, contributionID)
	if err != nil {
		return storageErr("mark mirrored", err)
	}
	return nil
}

// MarkMirrorError flags a contribution whose spreadsheet append keeps
// failing so the backlog sweep stops retrying it.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, contributionID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contributions SET mirror_status = -1 WHERE id = ?`, contributionID)
	if err != nil {
		return storageErr("mark mirror error", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProfile validates a raw row at the storage boundary before it reaches
// ledger or attendance logic.
func scanProfile(row rowScanner) (core.Profile, error) {
	var p core.Profile
	var visible, smsEnabled, isAdmin int
	var daily, adjustment string
	var lastSent sql.NullString

	err := row.Scan(&p.MemberID, &p.FullName, &p.PhoneNumber, &visible, &daily,
		&adjustment, &smsEnabled, &isAdmin, &lastSent)
	if err != nil {
		return core.Profile{}, err
	}

	p.BalanceVisible = visible != 0
	p.SMSEnabled = smsEnabled != 0
	p.IsAdmin = isAdmin != 0

	if p.DailyAmount, err = decimal.NewFromString(daily); err != nil {
		return core.Profile{}, fmt.Errorf("malformed daily amount %q: %w", daily, core.ErrInvalidAmount)
	}
	if p.Adjustment, err = decimal.NewFromString(adjustment); err != nil {
		return core.Profile{}, fmt.Errorf("malformed adjustment %q: %w", adjustment, core.ErrInvalidAmount)
	}
	if lastSent.Valid && lastSent.String != "" {
		if p.LastMissedReminderSent, err = core.ParseDate(lastSent.String); err != nil {
			return core.Profile{}, fmt.Errorf("malformed reminder date %q: %w", lastSent.String, err)
		}
	}

	return p, p.Validate()
}

func scanContributions(rows *sql.Rows) ([]core.Contribution, error) {
	var contributions []core.Contribution
	for rows.Next() {
		var c core.Contribution
		var amount, date, status string
		if err := rows.Scan(&c.ID, &c.MemberID, &amount, &date, &status, &c.Notes, &c.CreatedAt); err != nil {
			return nil, storageErr("scan contribution", err)
		}
		var err error
		if c.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("malformed amount %q: %w", amount, core.ErrInvalidAmount)
		}
		if c.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("malformed contribution date %q: %w", date, err)
		}
		c.Status = core.ContributionStatus(status)
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid contribution row %s: %w", c.ID, err)
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate contributions", err)
	}
	return contributions, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
