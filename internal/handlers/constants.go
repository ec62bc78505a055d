package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody  = "Invalid request body"
	ErrMsgInvalidTemplateID   = "Invalid template ID"
	ErrMsgInvalidSubmissionID = "Invalid submission ID"
	ErrMsgUserIDNotFound      = "User ID not found"
	ErrMsgPermissionDenied    = "Permission denied"
	ErrMsgNotFound            = "Not found"
)

// Role name constants
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)
