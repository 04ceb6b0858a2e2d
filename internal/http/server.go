package http

import (
	"net/http"
	"strings"
	"time"

	"horizon/internal/auth"
	"horizon/internal/middleware/ratelimit"
	"horizon/internal/middleware/trace"
)

// Server is the JSON API for members and the administrator. Every /api
// route requires a bearer token; group views and messaging additionally
// require the admin role on the resolved identity.
type Server struct {
	http.Server

	ledger   Ledger
	group    Group
	messages Messages
	profiles ProfileReader
	sender   Sender

	resolver auth.Resolver
	limiter  *ratelimit.Limiter

	// smsReady is false when no SMS gateway is configured; the direct-send
	// endpoint then reports 503 while still logging the attempt.
	smsReady bool

	loc *time.Location
	now func() time.Time
}

// Options carries the server wiring that is not a service collaborator.
type Options struct {
	Addr          string
	Resolver      auth.Resolver
	SMSConfigured bool
	Location      *time.Location
}

func NewServer(opts Options, ledger Ledger, group Group, messages Messages, profiles ProfileReader, sender Sender) *Server {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: nil,
		},
		ledger:   ledger,
		group:    group,
		messages: messages,
		profiles: profiles,
		sender:   sender,
		resolver: opts.Resolver,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		smsReady: opts.SMSConfigured,
		loc:      loc,
		now:      time.Now,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.Handle("POST /api/contributions", s.withAuth(s.handleRecordContribution))
	mux.Handle("GET /api/contributions", s.withAuth(s.handleListContributions))
	mux.Handle("GET /api/balance", s.withAuth(s.handleBalance))
	mux.Handle("GET /api/messages", s.withAuth(s.handleListMessages))
	mux.Handle("POST /api/messages/{id}/read", s.withAuth(s.handleMarkMessageRead))

	mux.Handle("GET /api/group/stats", s.withAdmin(s.handleGroupStats))
	mux.Handle("GET /api/group/recent", s.withAdmin(s.handleGroupRecent))
	mux.Handle("POST /api/messages", s.withAdmin(s.handleCreateMessage))
	mux.Handle("POST /api/send-sms", s.withAdmin(s.handleSendSMS))
	mux.Handle("GET /api/sms-logs", s.withAdmin(s.handleSMSLogs))

	s.Server.Handler = trace.Middleware(clientIP, securityHeaders(mux))
	return s
}

// Close stops the limiter's background goroutine along with the listener.
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.Server.Close()
}

type authedHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// withAuth resolves the bearer token and rate-limits mutating requests.
func (s *Server) withAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		id, ok := s.identify(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next(w, r, id)
	})
}

// withAdmin additionally requires the admin role.
func (s *Server) withAdmin(next authedHandler) http.Handler {
	return s.withAuth(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
		if !id.IsAdmin {
			writeError(w, http.StatusForbidden, "administrator access required")
			return
		}
		next(w, r, id)
	})
}

func (s *Server) identify(r *http.Request) (auth.Identity, bool) {
	if s.resolver == nil {
		return auth.Identity{}, false
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return auth.Identity{}, false
	}
	return s.resolver.Resolve(strings.TrimSpace(token))
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller's address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
