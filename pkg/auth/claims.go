package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
)

// AccessTokenPayload is the identity minted into an access token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims is the wire shape of the identity collaborator: every
// authorized operation boundary consumes the caller's user id and role.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"uid"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the resolved caller identity handed to operation boundaries.
type Identity struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Identity converts validated claims into a caller identity.
func (c *AccessTokenClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role}
}
