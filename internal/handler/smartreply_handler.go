/*
Package handler provides the HTTP handlers and routing for the SmartComms
server.

This file holds the smart-reply proxy. The upstream service is best-effort: any
failure yields an empty suggestion with a success status, never an error the
client has to handle.
*/
package handler

import (
	"net/http"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/errs"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/req"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/resp"
)

// maxSmartReplyInput caps the text forwarded to the suggestion service.
const maxSmartReplyInput = 2000

type SmartReplyInput struct {
	Message string `json:"message"`
}

// HandleSmartReply asks the suggestion service for a reply to the given text.
func HandleSmartReply(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SmartReplyInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		if input.Message == "" {
			resp.Error(w, r, errs.New(errs.ErrMessageContentEmpty))
			return
		}

		text := input.Message
		if len(text) > maxSmartReplyInput {
			text = text[:maxSmartReplyInput]
		}

		suggestion, err := deps.Suggest.SuggestReply(r.Context(), text)
		if err != nil {
			// Degrade to an empty suggestion rather than failing the request.
			logx.Warn("Smart reply unavailable", "error", err.Error())
			suggestion = ""
		}

		resp.Success(w, r, map[string]string{
			"suggestion": suggestion,
		})
	}
}
