package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/carelane/medstock-backend/api/responses"
	pkgAuth "github.com/carelane/medstock-backend/pkg/auth"
	"github.com/carelane/medstock-backend/pkg/auth/session"
	"github.com/carelane/medstock-backend/pkg/config"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/logger"
)

// Auth validates the bearer JWT, checks its jti still has a live session, and seeds
// the request context with the caller.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, r, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			switch {
			case errors.Is(err, pkgAuth.ErrTokenExpired):
				unauthorized(w, r, logg, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "token expired"))
				return
			case err != nil:
				unauthorized(w, r, logg, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.SessionID())
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					unauthorized(w, r, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := WithPrincipal(r.Context(), Principal{
				UserID:   claims.UserID,
				Role:     claims.Role,
				AccessID: claims.SessionID(),
			})
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err *pkgerrors.Error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="medstock"`)
	responses.WriteError(r.Context(), logg, w, err)
}

// BearerToken extracts the token from the Authorization header; the scheme is optional.
func BearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
