package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carelane/medstock-backend/pkg/enums"
)

var ErrIncompleteClaims = errors.New("token missing user, role or session id")

// AccessTokenPayload is the input to MintAccessToken. An empty JTI is replaced with
// a random one; the JTI doubles as the Redis session key.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Role     enums.UserRole
	JTI      string
}

// AccessTokenClaims is the body of a MedStock access token.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"userId"`
	Username string         `json:"username"`
	Role     enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// SessionID returns the jti that keys the server-side session.
func (c *AccessTokenClaims) SessionID() string {
	return c.ID
}

// checkIdentity runs for every parse, including the expiry-tolerant one used by
// refresh. The subject must agree with the userId claim.
func (c *AccessTokenClaims) checkIdentity() error {
	if c.UserID == uuid.Nil || !c.Role.IsValid() || c.ID == "" {
		return ErrIncompleteClaims
	}
	if c.Subject != "" && c.Subject != c.UserID.String() {
		return errors.New("token subject does not match user")
	}
	return nil
}
