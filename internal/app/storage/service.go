/*
Package storage is the object-store collaborator for chat attachments and
avatars, backed by any S3-compatible endpoint.
*/
package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the connection settings for the object store.
type ServiceConfig struct {
	BucketName      string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Service is the interface handlers consume.
type Service interface {
	// PresignUpload returns a URL a client can PUT an attachment to.
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload returns a URL a client can GET an attachment from.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Upload streams an object server-side, used for avatar uploads.
	Upload(ctx context.Context, key, mimeType string, body io.Reader) (string, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
}

// NewService builds the S3-compatible implementation.
func NewService(cfg ServiceConfig) (Service, error) {
	return newObjectStore(cfg)
}
