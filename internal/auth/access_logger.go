package auth

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/repositories"
)

// AccessLogger writes audit entries to the access log table and mirrors them to slog.
type AccessLogger struct {
	repo   repositories.AccessLogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAccessLogger creates an AccessLogger. repo may be nil, in which case
// entries are only logged.
func NewAccessLogger(repo repositories.AccessLogRepository, logger *slog.Logger) *AccessLogger {
	return &AccessLogger{repo: repo, logger: logger, now: time.Now}
}

// Record fills request metadata and persists the entry. Persistence failures
// are logged at error level and never fail the request.
func (l *AccessLogger) Record(ctx context.Context, r *http.Request, entry *models.AccessLogEntry) {
	entry.CreatedAt = l.now()
	if r != nil {
		entry.RequestPath = r.URL.Path
		entry.SourceIP = clientIP(r)
		entry.UserAgent = r.UserAgent()
	}

	l.logger.Info("auth attempt",
		"company", entry.CompanyShortName,
		"auth_type", entry.AuthType,
		"outcome", entry.Outcome,
		"reason_code", entry.ReasonCode,
		"user_identifier", entry.UserIdentifier,
		"path", entry.RequestPath,
		"duration_ms", entry.DurationMS,
	)

	if l.repo == nil {
		return
	}
	// The audit write must survive client disconnects
	if err := l.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		l.logger.Error("failed to persist access log entry",
			"error", err,
			"company", entry.CompanyShortName,
			"auth_type", entry.AuthType,
		)
	}
}

// clientIP prefers the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
