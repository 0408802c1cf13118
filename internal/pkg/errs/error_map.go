/*
Package errs defines the application error type and the error code catalog.

errorMap holds the full CustomError for every code, standardizing both HTTP
responses and internal handling.
*/
package errs

import "net/http"

// errorMap maps every application error code to its CustomError template.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat and Message Business Logic Errors
	ErrChatNotFound:          {Code: ErrChatNotFound, Message: "Chat not found.", Status: http.StatusNotFound},
	ErrChatMembersInvalid:    {Code: ErrChatMembersInvalid, Message: "A chat needs at least %d members.", Status: http.StatusBadRequest},
	ErrNotChatMember:         {Code: ErrNotChatMember, Message: "You are not a member of this chat.", Status: http.StatusForbidden},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrMessageContentEmpty:   {Code: ErrMessageContentEmpty, Message: "Message content is required.", Status: http.StatusBadRequest},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrFileTypeInvalid:       {Code: ErrFileTypeInvalid, Message: "File type is not allowed.", Status: http.StatusBadRequest},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Invalid password.", Status: http.StatusBadRequest},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username is already taken.", Status: http.StatusConflict},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password.", Status: http.StatusUnauthorized},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},

	// 4xxx: External Collaborator Errors
	ErrSuggestionUnavailable: {Code: ErrSuggestionUnavailable, Message: "Reply suggestions are unavailable right now.", Status: http.StatusServiceUnavailable},
	ErrFileStorageFailed:     {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusBadGateway},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
