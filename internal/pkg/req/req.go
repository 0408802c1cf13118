/*
Package req provides helpers for parsing HTTP request bodies into typed inputs.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/errs"
)

// MaxBodyBytes caps the size of JSON request bodies.
const MaxBodyBytes int64 = 1 << 20 // 1 MB

// BindJSON decodes the JSON request body into dst. Unknown fields and trailing
// content are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.New(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.New(errs.ErrRequestEntityTooLarge)
		}
		return errs.New(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.New(errs.ErrExtraContentInBody)
	}

	return nil
}
