package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
)

// objectStore implements Service against an S3-compatible endpoint.
type objectStore struct {
	cfg      ServiceConfig
	client   *s3.Client
	uploader *manager.Uploader
}

// newObjectStore builds the S3 client with static credentials and a custom
// endpoint, path-style addressed so MinIO-style endpoints work.
func newObjectStore(cfg ServiceConfig) (*objectStore, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load object store SDK configuration")
		return nil, errors.New("failed to initialize object store configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &objectStore{
		cfg:      cfg,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// PresignUpload returns a time-limited PUT URL for the given key.
func (o *objectStore) PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(o.client)

	resp, err := presignClient.PresignPutObject(ctx,
		&s3.PutObjectInput{
			Bucket:        &o.cfg.BucketName,
			Key:           &key,
			ContentType:   &mimeType,
			ContentLength: &fileSize,
		},
		s3.WithPresignExpires(duration),
	)
	if err != nil {
		logx.Error(err, "Failed to presign upload URL", "key", key)
		return "", errors.New("failed to generate presigned upload URL")
	}

	return resp.URL, nil
}

// PresignDownload returns a time-limited GET URL for the given key.
func (o *objectStore) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(o.client)

	resp, err := presignClient.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: &o.cfg.BucketName,
			Key:    &key,
		},
		s3.WithPresignExpires(duration),
	)
	if err != nil {
		logx.Error(err, "Failed to presign download URL", "key", key)
		return "", errors.New("failed to generate presigned download URL")
	}

	return resp.URL, nil
}

// Upload streams body to key and returns the object's location.
func (o *objectStore) Upload(ctx context.Context, key, mimeType string, body io.Reader) (string, error) {
	result, err := o.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &o.cfg.BucketName,
		Key:         &key,
		ContentType: &mimeType,
		Body:        body,
	})
	if err != nil {
		logx.Error(err, "Object upload failed", "key", key)
		return "", errors.New("failed to upload object")
	}

	if result.Location != "" {
		return result.Location, nil
	}

	return fmt.Sprintf("%s/%s/%s", o.cfg.Endpoint, o.cfg.BucketName, key), nil
}

// Delete removes the object at key.
func (o *objectStore) Delete(ctx context.Context, key string) error {
	_, err := o.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &o.cfg.BucketName,
		Key:    &key,
	})
	if err != nil {
		logx.Error(err, "Object delete failed", "key", key)
		return errors.New("failed to delete object")
	}

	return nil
}
