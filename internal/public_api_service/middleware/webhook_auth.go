package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// WebhookSecretHeader carries the shared secret on provider callback requests.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookAuthMiddleware rejects callback requests whose shared-secret header
// does not match the configured value. With no secret configured every
// callback is rejected; that is logged once at construction so an operator
// knows APP_WEBHOOK_SECRET must be set before callbacks can flow.
func WebhookAuthMiddleware(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("middleware", "webhook_auth")
	if secret == "" {
		logger.Warn("Webhook secret not configured, all callback requests will be rejected")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.WarnContext(r.Context(), "Webhook request rejected, no secret configured", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			provided := r.Header.Get(WebhookSecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				logger.WarnContext(r.Context(), "Webhook request rejected, bad or missing secret", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
