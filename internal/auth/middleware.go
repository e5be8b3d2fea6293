package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

// PrincipalMiddleware resolves the session user into an authz.Principal
// once per request. Unauthenticated requests pass through without a
// principal; the authorization layer rejects them where one is needed.
func PrincipalMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(sess.User())
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				if logger != nil {
					logger.Error("parse session user id", slog.String("value", raw))
				}
				next.ServeHTTP(w, r)
				return
			}
			principal, err := service.PrincipalFor(r.Context(), userID)
			if err != nil {
				if logger != nil {
					logger.Warn("resolve principal", slog.Int64("user_id", userID), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := authz.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
