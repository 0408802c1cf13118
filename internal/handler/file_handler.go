/*
Package handler provides the HTTP handlers and routing for the SmartComms
server.

This file holds the attachment surface: presigned upload/download URLs for
chat attachments and the server-side avatar upload.
*/
package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/auth/jwt"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/errs"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/randx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/req"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/resp"
)

const (
	// maxAttachmentSize caps a single attachment at 5 MB.
	maxAttachmentSize = 5 * 1024 * 1024

	// presignDuration is how long a presigned URL stays valid.
	presignDuration = 5 * time.Minute

	// maxAvatarSize caps an avatar upload at 2 MB.
	maxAvatarSize = 2 * 1024 * 1024
)

// allowedMIMETypes is the set of attachment types clients may upload.
var allowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// extToMIME maps file extensions to their expected MIME types.
var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// validateFileType checks a file name against its declared MIME type.
func validateFileType(fileName, mimeType string) *errs.CustomError {
	lowerMIME := strings.ToLower(mimeType)

	if _, ok := allowedMIMETypes[lowerMIME]; !ok {
		return errs.New(errs.ErrFileTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	expected, ok := extToMIME[ext]
	if !ok || expected != lowerMIME {
		return errs.New(errs.ErrFileTypeInvalid)
	}

	return nil
}

type PresignUploadInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
	ChatID   string `json:"chatId"`
}

// HandlePresignUpload returns a presigned PUT URL for one chat attachment.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.Error(w, r, errs.New(errs.ErrFileStorageFailed))
			return
		}

		identity := jwt.GetPayloadFromContext(r)

		var input PresignUploadInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		if input.ChatID == "" {
			resp.Error(w, r, errs.New(errs.ErrInvalidParams))
			return
		}

		if input.FileSize <= 0 || input.FileSize > maxAttachmentSize {
			resp.Error(w, r, errs.New(errs.ErrFileSizeTooLarge))
			return
		}

		if customErr := validateFileType(input.FileName, input.MimeType); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		if customErr := requireMembership(r, deps, input.ChatID, identity.ID); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		key := fmt.Sprintf("%s/%s%s", input.ChatID, randx.NewID(), strings.ToLower(filepath.Ext(input.FileName)))

		url, err := deps.Storage.PresignUpload(r.Context(), key, input.MimeType, input.FileSize, presignDuration)
		if err != nil {
			logx.Error(err, "Failed to presign attachment upload", "chat_id", input.ChatID)
			resp.Error(w, r, errs.New(errs.ErrFileStorageFailed))
			return
		}

		resp.Success(w, r, map[string]string{
			"uploadUrl": url,
			"fileKey":   key,
		})
	}
}

// HandlePresignDownload returns a presigned GET URL for an attachment key.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.Error(w, r, errs.New(errs.ErrFileStorageFailed))
			return
		}

		identity := jwt.GetPayloadFromContext(r)

		key := r.URL.Query().Get("key")
		chatID, _, found := strings.Cut(key, "/")
		if !found || chatID == "" {
			resp.Error(w, r, errs.New(errs.ErrInvalidParams))
			return
		}

		// Attachment keys are chat-prefixed; membership gates the download.
		if customErr := requireMembership(r, deps, chatID, identity.ID); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), key, presignDuration)
		if err != nil {
			logx.Error(err, "Failed to presign attachment download", "key", key)
			resp.Error(w, r, errs.New(errs.ErrFileStorageFailed))
			return
		}

		resp.Success(w, r, map[string]string{
			"downloadUrl": url,
		})
	}
}

// HandleUploadAvatar streams an avatar to the object store and records its URL
// on the account.
func HandleUploadAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.Error(w, r, errs.New(errs.ErrFileStorageFailed))
			return
		}

		identity := jwt.GetPayloadFromContext(r)

		r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
		if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
			if strings.Contains(err.Error(), "request body too large") {
				resp.Error(w, r, errs.New(errs.ErrRequestEntityTooLarge))
				return
			}
			resp.Error(w, r, errs.New(errs.ErrInvalidParams))
			return
		}

		file, header, err := r.FormFile("avatar")
		if err != nil {
			resp.Error(w, r, errs.New(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if customErr := validateFileType(header.Filename, mimeType); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		key := fmt.Sprintf("avatars/%s%s", identity.ID, strings.ToLower(filepath.Ext(header.Filename)))

		url, err := deps.Storage.Upload(r.Context(), key, mimeType, file)
		if err != nil {
			logx.Error(err, "Avatar upload failed", "user_id", identity.ID)
			resp.Error(w, r, errs.New(errs.ErrFileStorageFailed))
			return
		}

		if err := deps.Store.UpdateUserAvatar(r.Context(), identity.ID, url); err != nil {
			logx.Error(err, "Failed to record avatar URL", "user_id", identity.ID)
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		resp.Success(w, r, map[string]string{
			"avatar": url,
		})
	}
}
