package users

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
	"github.com/atlas-qms/atlas-qms/internal/shared"
)

// ActorMiddleware resolves the session user into an authorization actor and
// stores it in the request context. Requests without an authenticated,
// active user are rejected before any handler runs.
func ActorMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			userID, err := uuid.Parse(sess.User())
			if err != nil {
				logger.Warn("malformed session user id", slog.String("value", sess.User()))
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			actor, err := service.Actor(r.Context(), userID)
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
		})
	}
}
