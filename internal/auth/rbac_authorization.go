package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/smartwork/internal"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
	"github.com/frahmantamala/smartwork/internal/transport"
)

// RoleAuthorization guards routes by the role of the user that
// AuthMiddleware put in the request context.
type RoleAuthorization struct {
	*transport.BaseHandler
}

func NewRoleAuthorization(logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

func (ra *RoleAuthorization) Check(next http.HandlerFunc, allowed func(*coreuser.User) bool, denied *internal.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok || user == nil {
			ra.Logger.Warn("authorization check failed: user not found in context")
			ra.WriteAppError(w, internal.ErrUnauthenticated)
			return
		}

		if !allowed(user) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient role",
				"username", user.Username,
				"role", user.Role,
				"path", r.URL.Path)
			ra.WriteAppError(w, denied)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RoleAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, (*coreuser.User).IsAdmin, internal.ErrAdminRequired)
	}
}
