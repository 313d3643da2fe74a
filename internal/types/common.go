package types

// HTTP Header Constants
const (
	HeaderUID           = "uid"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderFilename      = "X-Filename"
)

// Authentication Constants
const (
	BearerPrefix = "Bearer "
	// AccessTokenCookie is the cookie checked when no bearer header is sent
	AccessTokenCookie = "access_token"
	// ClaimKey is the JWT claim that carries the user context map
	ClaimKey = "claim"
)

// Common Values
const (
	UserRole  = "user"
	AdminRole = "admin"
)
