/*
Package errs defines the application error type and the error code catalog.

The constants below identify specific business or system failures both inside the
server and on the wire to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates the request body exceeded the size limit.
	ErrRequestEntityTooLarge = 1005

	// ErrRateLimitExceeded indicates the per-IP request rate was exceeded.
	ErrRateLimitExceeded = 1006
)

// 2xxx: Chat and Message Business Logic Errors
const (
	// ErrChatNotFound indicates the referenced chat does not exist.
	ErrChatNotFound = 2101

	// ErrChatMembersInvalid indicates a chat was created with too few members.
	ErrChatMembersInvalid = 2102

	// ErrNotChatMember indicates the caller does not belong to the chat.
	ErrNotChatMember = 2103

	// ErrMessageContentTooLong indicates the message content exceeded its limit.
	ErrMessageContentTooLong = 2201

	// ErrMessageContentEmpty indicates a message with no content was submitted.
	ErrMessageContentEmpty = 2202

	// ErrFileSizeTooLarge indicates an attachment exceeded the size limit.
	ErrFileSizeTooLarge = 2301

	// ErrFileTypeInvalid indicates an attachment of a disallowed type.
	ErrFileTypeInvalid = 2302
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = 3001

	// ErrInvalidUsername indicates the username failed validation.
	ErrInvalidUsername = 3002

	// ErrInvalidPassword indicates the password failed validation.
	ErrInvalidPassword = 3003

	// ErrUserAlreadyExists indicates the username is taken.
	ErrUserAlreadyExists = 3004

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = 3005

	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = 3006
)

// 4xxx: External Collaborator Errors
const (
	// ErrSuggestionUnavailable indicates the smart-reply service could not answer.
	ErrSuggestionUnavailable = 4001

	// ErrFileStorageFailed indicates the object store rejected an operation.
	ErrFileStorageFailed = 4002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
