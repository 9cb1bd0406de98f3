package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/gorilla/websocket"
)

var errInvalidAuthHeader = errors.New("invalid Authorization header format")

// Auth validates JWT and injects the user into context.
// Requests without token continue as anonymous, protected routes reject them in RequireRoles.
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := tokenFromRequest(r)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}
		if token == "" {
			next.ServeHTTP(w, r.WithContext(models.WithUser(ctx, models.AnonymousUser())))
			return
		}

		user, err := h.auth.Validate(ctx, token)
		if err != nil || user == nil {
			h.log.Warn(wrap.ErrorCtx(ctx, err), "failed to authenticate user", "error", err)
			errorResponse(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx = wrap.WithUserID(ctx, user.ID.String())
		next.ServeHTTP(w, r.WithContext(models.WithUser(ctx, user)))
	})
}

// RequireRoles allows only authenticated users with one of the given roles.
// Without roles any authenticated user passes.
func (h *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := models.UserFromContext(r.Context())
		if user.IsAnonymous() {
			errorResponse(w, http.StatusUnauthorized, types.ErrUnauthorized.Error())
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[user.Role]; !ok {
				errorResponse(w, http.StatusForbidden, types.ErrForbidden.Error())
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// tokenFromRequest reads bearer token from the header.
// Browsers can't set headers on websocket handshake, so upgrades may pass ?token=.
func tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		return extractBearerToken(header)
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token"), nil
	}
	return "", nil
}

func extractBearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errInvalidAuthHeader
	}
	return token, nil
}
