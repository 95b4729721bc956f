package common

const (
	// AuthorizationHeader is the HTTP header carrying the access token.
	AuthorizationHeader = "Authorization"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "
)
