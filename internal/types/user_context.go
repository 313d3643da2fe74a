package types

import (
	uuid "github.com/gofrs/uuid"
)

// UserCtxName is the fiber.Locals key holding the authenticated UserContext
const UserCtxName = "user"

// UserContext is the authenticated principal extracted from the JWT claim.
// Tier assignment is not part of the token; it is looked up per request.
type UserContext struct {
	UserID      uuid.UUID `json:"uid"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	SystemRole  string    `json:"role"`
	CreatedDate int64     `json:"createdDate"`
}

// IsAdmin reports whether the principal carries the admin system role
func (u UserContext) IsAdmin() bool {
	return u.SystemRole == AdminRole
}
