// Package audit records rejected management requests in the SIGEL audit
// trail. Successful mutations are audited by the domain packages inside
// their own transactions.
package audit

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sigel-gov/sigel/pkg/authz"
	"github.com/sigel-gov/sigel/pkg/leilao"
)

// Appender appends an event to the audit trail.
type Appender interface {
	Append(event *leilao.AuditEvent) error
}

// responseCapture wraps http.ResponseWriter to capture the status code.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Middleware records management requests that were denied (403) or, when
// cfg.LogFailures is set, that failed. Writes are best-effort: a failed
// append is logged and the response is left alone. When invalidator is
// non-nil the cached auction reads, which include the audit listing, are
// dropped after each append.
func Middleware(store Appender, invalidator leilao.CacheInvalidator, cfg *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil || !cfg.Enabled || store == nil || !isManagementRequest(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			outcome := outcomeFromStatus(capture.statusCode)
			switch {
			case outcome == outcomeDenied && cfg.LogDenied:
			case outcome == outcomeFailure && cfg.LogFailures:
			default:
				return
			}

			ctx := r.Context()
			actor := leilao.SystemActor
			if id, ok := authz.IdentityFromContext(ctx); ok {
				actor = leilao.Actor{Usuario: id.Nome, Role: string(id.Role)}
			}
			requestID := middleware.GetReqID(ctx)
			t := resolveTarget(r.Method, r.URL.Path)

			detalhes := fmt.Sprintf("%s %s respondeu %d em %s (requestId=%s)",
				r.Method, r.URL.Path, capture.statusCode, time.Since(start).Round(time.Millisecond), requestID)
			if t.sessaoID != "" {
				detalhes += fmt.Sprintf(" sessão de vistoria %s", t.sessaoID)
			}
			event := &leilao.AuditEvent{
				Data:        start,
				Usuario:     actor.Usuario,
				UsuarioRole: actor.Role,
				Acao:        fmt.Sprintf("%s: %s", outcomeLabel(outcome), t.acao),
				Entidade:    t.entidade,
				EntidadeID:  t.entidadeID,
				Detalhes:    detalhes,
			}
			if err := store.Append(event); err != nil {
				logger.Error("failed to write audit event", "error", err, "requestID", requestID)
				return
			}
			if invalidator != nil {
				if err := invalidator.InvalidatePrefix(ctx, leilao.CachePrefix); err != nil {
					logger.Warn("failed to invalidate cached reads", "error", err)
				}
			}
		})
	}
}

const (
	outcomeSuccess = "success"
	outcomeDenied  = "denied"
	outcomeFailure = "failure"
)

// outcomeFromStatus maps HTTP status codes to audit outcomes.
func outcomeFromStatus(code int) string {
	switch {
	case code >= 200 && code < 400:
		return outcomeSuccess
	case code == http.StatusForbidden:
		return outcomeDenied
	default:
		return outcomeFailure
	}
}

func outcomeLabel(outcome string) string {
	if outcome == outcomeDenied {
		return "Acesso negado"
	}
	return "Falha na operação"
}
