// Package storage provides a domain-agnostic adapter for S3-compatible
// object storage. The work-order photo reconciliation engine consumes it
// through its narrow ObjectStore contract.
package storage

import (
	"context"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service defines the interface for object storage operations.
// Implementations must be safe for concurrent use.
type Service interface {
	// Put stores an object and returns its public URL.
	Put(ctx context.Context, storagePath string, data []byte, contentType string) (string, error)

	// Delete removes an object. The argument may be a bare object key or a
	// full URL previously returned by Put.
	Delete(ctx context.Context, storagePath string) error

	// GenerateDownloadURL creates a presigned URL for downloading an object.
	GenerateDownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error)

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context) error

	// ValidateContentType checks if the content type is allowed.
	ValidateContentType(contentType string) error

	// ValidateFileSize checks if the file size is within limits.
	ValidateFileSize(sizeBytes int64) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketWorkOrderPhotos() string
	IsMinIOEnabled() bool
}
