package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"horizon/internal/auth"
	"horizon/internal/core"
	"horizon/internal/notify"
)

type contributionJSON struct {
	ID        string `json:"id"`
	MemberID  string `json:"member_id"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toContributionJSON(c core.Contribution) contributionJSON {
	return contributionJSON{
		ID:        c.ID,
		MemberID:  c.MemberID,
		Amount:    c.Amount.String(),
		Date:      c.Date.String(),
		Status:    string(c.Status),
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

func (s *Server) handleRecordContribution(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req struct {
		Date  string `json:"date"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date := s.today()
	if req.Date != "" {
		var err error
		if date, err = core.ParseDate(req.Date); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	saved, err := s.ledger.Record(r.Context(), id.MemberID, date, strings.TrimSpace(req.Notes))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContributionJSON(saved))
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	day := s.today()
	if v := r.URL.Query().Get("month"); v != "" {
		var err error
		if day, err = core.ParseDate(v); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	contributions, err := s.ledger.Month(r.Context(), id.MemberID, day)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]contributionJSON, 0, len(contributions))
	for _, c := range contributions {
		out = append(out, toContributionJSON(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"contributions": out})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	balance, err := s.ledger.Balance(r.Context(), id.MemberID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	missed, err := s.ledger.MissedDays(r.Context(), id.MemberID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := struct {
		Visible    bool   `json:"visible"`
		Amount     string `json:"amount,omitempty"`
		MissedDays int    `json:"missed_days"`
	}{
		Visible:    balance.Visible,
		MissedDays: missed,
	}
	if balance.Visible {
		resp.Amount = balance.Amount.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGroupStats(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	stats, err := s.group.Stats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		MemberCount      int    `json:"member_count"`
		TotalSavings     string `json:"total_savings"`
		ThisMonthTotal   string `json:"this_month_total"`
		ThisMonthCount   int    `json:"this_month_count"`
		PerMemberAverage string `json:"per_member_average"`
	}{
		MemberCount:      stats.MemberCount,
		TotalSavings:     stats.TotalSavings.String(),
		ThisMonthTotal:   stats.ThisMonthTotal.String(),
		ThisMonthCount:   stats.ThisMonthCount,
		PerMemberAverage: stats.PerMemberAverage.String(),
	})
}

func (s *Server) handleGroupRecent(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	activity, err := s.group.Recent(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	type row struct {
		contributionJSON
		MemberName string `json:"member_name,omitempty"`
	}
	out := make([]row, 0, len(activity))
	for _, a := range activity {
		out = append(out, row{contributionJSON: toContributionJSON(a.Contribution), MemberName: a.MemberName})
	}
	writeJSON(w, http.StatusOK, map[string]any{"contributions": out})
}

type adminMessageJSON struct {
	ID        string `json:"id"`
	MemberID  string `json:"member_id"`
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toAdminMessageJSON(m core.AdminMessage) adminMessageJSON {
	return adminMessageJSON{
		ID:        m.ID,
		MemberID:  m.MemberID,
		Message:   m.Message,
		Kind:      string(m.Kind),
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	messages, err := s.messages.ListFor(r.Context(), id.MemberID, 50)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]adminMessageJSON, 0, len(messages))
	unread := 0
	for _, m := range messages {
		out = append(out, toAdminMessageJSON(m))
		if !m.IsRead {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out, "unread": unread})
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req struct {
		MemberID string `json:"member_id"`
		Message  string `json:"message"`
		Kind     string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MemberID == "" {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	kind := core.AdminMessageKind(req.Kind)
	if req.Kind == "" {
		kind = core.AdminMessageInfo
	}
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid message kind")
		return
	}

	if _, err := s.profiles.GetProfile(r.Context(), req.MemberID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	saved, err := s.messages.Create(r.Context(), req.MemberID, strings.TrimSpace(req.Message), kind)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdminMessageJSON(saved))
}

func (s *Server) handleMarkMessageRead(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	messageID := r.PathValue("id")
	if messageID == "" {
		writeError(w, http.StatusBadRequest, "message id is required")
		return
	}
	if err := s.messages.MarkRead(r.Context(), messageID); err != nil {
		if errors.Is(err, core.ErrStorageUnavailable) {
			writeDomainError(w, r, err)
			return
		}
		writeError(w, http.StatusNotFound, "unknown message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type smsLogJSON struct {
	MemberID    string `json:"member_id"`
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
	MessageType string `json:"message_type"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func (s *Server) handleSMSLogs(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	memberID := r.URL.Query().Get("member_id")
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	logs, err := s.profiles.ListSMSLogs(r.Context(), memberID, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]smsLogJSON, 0, len(logs))
	for _, l := range logs {
		out = append(out, smsLogJSON{
			MemberID:    l.MemberID,
			PhoneNumber: l.PhoneNumber,
			Message:     l.Message,
			MessageType: string(l.MessageType),
			Status:      string(l.Status),
			CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": out})
}

// handleSendSMS sends a one-off administrator SMS outside the outbox
// flow. The delivery log still records every attempt, including those
// made while the gateway is unconfigured.
func (s *Server) handleSendSMS(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req struct {
		MemberID string `json:"member_id"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MemberID == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "member_id and message are required")
		return
	}

	profile, err := s.profiles.GetProfile(r.Context(), req.MemberID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	args := notify.TemplateArgs{AdminText: strings.TrimSpace(req.Message)}
	_, sendErr := s.sender.Send(r.Context(), core.MessageAdminNotification, profile.MemberID, profile.PhoneNumber, args)

	if !s.smsReady {
		writeError(w, http.StatusServiceUnavailable, "sms gateway not configured")
		return
	}
	switch {
	case sendErr == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(sendErr, core.ErrInvalidPhoneNumber):
		writeError(w, http.StatusBadRequest, "member has no valid phone number")
	default:
		writeError(w, http.StatusInternalServerError, "sms delivery failed")
	}
}
