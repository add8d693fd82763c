package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/influenciando/reseller-backend/pkg/enums"
)

// Actor is the authorization capability threaded through ledger and engine
// calls. It is decided once at the HTTP boundary and never re-derived from
// ambient state.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the actor may operate on other users' orders.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// AccessTokenClaims represents the typed JWT issued by the session service.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts claims into the authorization capability.
func (c *AccessTokenClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Role: c.Role}
}
