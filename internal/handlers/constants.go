package handlers

const (
	SessionCookieName = "session_id"

	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"

	maxRequestBodySize = 1 << 20
)
