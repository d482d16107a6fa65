package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelane/medstock-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxAccessID contextKey = "access_id"
)

// Principal is the authenticated caller attached by Auth.
type Principal struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	AccessID string
}

// WithPrincipal attaches p to ctx; used by Auth and by handler tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, p.UserID)
	ctx = context.WithValue(ctx, ctxRole, p.Role)
	return context.WithValue(ctx, ctxAccessID, p.AccessID)
}

// PrincipalFromContext returns the caller, or false when the request is anonymous.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	userID, ok := ctx.Value(ctxUserID).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return Principal{}, false
	}
	role, _ := ctx.Value(ctxRole).(enums.UserRole)
	accessID, _ := ctx.Value(ctxAccessID).(string)
	return Principal{UserID: userID, Role: role, AccessID: accessID}, true
}

func UserIDFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.UserID.String()
	}
	return ""
}
