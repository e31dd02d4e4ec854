package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ArchiveKey returns a fresh object key for a tournament's final standings.
// Keys never collide, so a retried upload never overwrites an earlier one.
func ArchiveKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/archive-%s.json", tournamentID, uuid.NewString())
}
