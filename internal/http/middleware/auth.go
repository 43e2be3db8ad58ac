package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/princekumarofficial/dropzone-service/internal/auth"
	"github.com/princekumarofficial/dropzone-service/internal/types/users"
	"github.com/princekumarofficial/dropzone-service/internal/utils/jwt"
	"github.com/princekumarofficial/dropzone-service/internal/utils/response"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	ActorKey  contextKey = "actor"

	// AuthCookie carries the access token for browser uploads.
	AuthCookie = "auth_token"
)

var (
	errNoToken      = errors.New("authorization required")
	errBadAuthz     = errors.New("invalid authorization header format")
	errInvalidToken = errors.New("invalid token")
)

// tokenFromRequest reads a bearer token, falling back to the auth cookie.
func tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return "", errBadAuthz
		}
		return strings.TrimSpace(token), nil
	}

	if cookie, err := r.Cookie(AuthCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", errNoToken
}

func actorFromRequest(r *http.Request, jwtSecret string) (auth.Actor, error) {
	token, err := tokenFromRequest(r)
	if err != nil {
		return auth.Anonymous(), err
	}

	claims, err := jwt.ParseToken(token, jwtSecret)
	if err != nil {
		return auth.Anonymous(), errInvalidToken
	}
	return auth.Actor{ID: claims.Subject, Role: users.Role(claims.Role)}, nil
}

func withActor(r *http.Request, actor auth.Actor) *http.Request {
	ctx := context.WithValue(r.Context(), ActorKey, actor)
	if actor.LoggedIn() {
		ctx = context.WithValue(ctx, UserIDKey, actor.ID)
	}
	return r.WithContext(ctx)
}

// AuthMiddleware rejects requests without a valid access token.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := actorFromRequest(r, jwtSecret)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(err))
				return
			}

			next.ServeHTTP(w, withActor(r, actor))
		})
	}
}

// OptionalAuth resolves the actor when credentials are present and continues
// as the anonymous actor otherwise. Upload requests rely on the gate to
// refuse anonymous actors with the widget's own error shape.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, _ := actorFromRequest(r, jwtSecret)
			next.ServeHTTP(w, withActor(r, actor))
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetActorFromContext returns the resolved actor, or the anonymous actor.
func GetActorFromContext(ctx context.Context) auth.Actor {
	if actor, ok := ctx.Value(ActorKey).(auth.Actor); ok {
		return actor
	}
	return auth.Anonymous()
}

// RequireRole rejects actors ranked below role. Run it after AuthMiddleware.
func RequireRole(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActorFromContext(r.Context())
			if !actor.LoggedIn() || !actor.Role.AtLeast(role) {
				response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("insufficient role")))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
