/*
Package errs defines the application error type and the error code catalog.

CustomError implements the standard error interface and carries a business code,
a client-facing message, and the HTTP status used when the error is rendered as a
response.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
)

// CustomError is the error structure used across the server.
type CustomError struct {
	// Code is the business error code (see error_codes.go).
	Code int

	// Message is the client-facing error description.
	Message string

	// Status is the HTTP status code this error maps to.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// New builds a *CustomError from a predefined code. Optional details are applied
// printf-style when the catalog message contains placeholders. Unknown codes
// fall back to ErrUnknown.
func New(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d is not present in the error catalog", code),
			"Unknown error code requested",
			"requested_code", code,
		)

		fallback := errorMap[ErrUnknown]
		return &fallback
	}

	customErr := template

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Handling ErrUnknown with underlying error")
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error without formatting placeholders. Details ignored.",
				"code", code)
		}
	}

	return &customErr
}
