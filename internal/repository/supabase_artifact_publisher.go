package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"pdf-to-word/internal/domain"

	storage_go "github.com/supabase-community/storage-go"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// objectUploader is the part of the storage-go client the publisher needs.
type objectUploader interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
}

// SupabaseArtifactPublisher implements domain.ArtifactPublisher with Supabase Storage.
type SupabaseArtifactPublisher struct {
	storage objectUploader
	bucket  string
	now     func() time.Time
	logger  domain.Logger
}

// NewSupabaseArtifactPublisher returns nil when Supabase is not configured,
// which disables publishing.
func NewSupabaseArtifactPublisher(client domain.SupabaseClient, bucket string, logger domain.Logger) domain.ArtifactPublisher {
	if client == nil || !client.Enabled() || client.DB() == nil || client.DB().Storage == nil {
		return nil
	}
	return &SupabaseArtifactPublisher{
		storage: client.DB().Storage,
		bucket:  bucket,
		now:     time.Now,
		logger:  logger,
	}
}

// Publish uploads the document under converted/YYYY/MM/DD/<name> and returns
// the object path inside the bucket.
func (p *SupabaseArtifactPublisher) Publish(ctx context.Context, artifact domain.SavedArtifact, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	objectPath := path.Join("converted", p.now().UTC().Format("2006/01/02"), artifact.Name)
	contentType := docxContentType
	upsert := true

	_, err := p.storage.UploadFile(p.bucket, objectPath, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to bucket %s: %w", objectPath, p.bucket, err)
	}

	p.logger.Info("Converted document published", "bucket", p.bucket, "path", objectPath, "bytes", len(data))
	return objectPath, nil
}
