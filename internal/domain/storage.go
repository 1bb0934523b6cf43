package domain

import (
	"context"
	"io"
)

// SavedArtifact describes a persisted output file.
type SavedArtifact struct {
	Name string
	Path string
	Size int64
}

// ArtifactRepository persists converted documents.
type ArtifactRepository interface {
	// Save writes data under name, applying the repository's collision policy.
	// Nothing is left behind on failure.
	Save(ctx context.Context, name string, data []byte) (SavedArtifact, error)
	// Open returns a previously saved artifact for download.
	Open(name string) (io.ReadSeekCloser, SavedArtifact, error)
}

// ArtifactPublisher copies a saved artifact to remote storage.
type ArtifactPublisher interface {
	Publish(ctx context.Context, artifact SavedArtifact, data []byte) (string, error)
}
