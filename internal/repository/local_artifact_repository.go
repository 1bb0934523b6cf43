package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pdf-to-word/internal/domain"
)

// maxSuffix bounds the "name (n).docx" search.
const maxSuffix = 9999

// LocalArtifactRepository implements domain.ArtifactRepository on a directory.
type LocalArtifactRepository struct {
	dir    string
	policy domain.CollisionPolicy
	logger domain.Logger
}

// NewLocalArtifactRepository creates the output directory if needed.
func NewLocalArtifactRepository(dir string, policy domain.CollisionPolicy, logger domain.Logger) (*LocalArtifactRepository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory must be provided")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if policy == "" {
		policy = domain.CollisionSuffix
	}
	return &LocalArtifactRepository{dir: abs, policy: policy, logger: logger}, nil
}

// Dir returns the absolute output directory.
func (r *LocalArtifactRepository) Dir() string {
	return r.dir
}

// Save writes data to a temp file in the output directory and then moves it
// into place, so a reader never sees a partial file and a failed save leaves
// nothing behind.
func (r *LocalArtifactRepository) Save(ctx context.Context, name string, data []byte) (domain.SavedArtifact, error) {
	if err := ValidateArtifactName(name); err != nil {
		return domain.SavedArtifact{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.SavedArtifact{}, err
	}

	tmp, err := r.writeTemp(data)
	if err != nil {
		return domain.SavedArtifact{}, err
	}
	defer os.Remove(tmp)

	var final string
	switch r.policy {
	case domain.CollisionOverwrite:
		final = filepath.Join(r.dir, name)
		if err := os.Rename(tmp, final); err != nil {
			return domain.SavedArtifact{}, fmt.Errorf("move into place: %w", err)
		}
	case domain.CollisionReject:
		final = filepath.Join(r.dir, name)
		if err := r.place(tmp, final, data); err != nil {
			return domain.SavedArtifact{}, err
		}
	default:
		final, err = r.placeWithSuffix(tmp, name, data)
		if err != nil {
			return domain.SavedArtifact{}, err
		}
	}

	saved := domain.SavedArtifact{Name: filepath.Base(final), Path: final, Size: int64(len(data))}
	r.logger.Debug("Artifact saved", "path", final, "bytes", saved.Size, "policy", string(r.policy))
	return saved, nil
}

func (r *LocalArtifactRepository) writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp(r.dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		r.logger.Warn("Failed to set artifact permissions", "path", name, "error", err)
	}
	return name, nil
}

// place creates final without replacing an existing file. Hard links give
// an atomic no-clobber move; filesystems without them fall back to O_EXCL.
func (r *LocalArtifactRepository) place(tmp, final string, data []byte) error {
	err := os.Link(tmp, final)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", domain.ErrArtifactExists, filepath.Base(final))
	}

	f, err := os.OpenFile(final, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrArtifactExists, filepath.Base(final))
		}
		return fmt.Errorf("create %s: %w", filepath.Base(final), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(final)
		return fmt.Errorf("write %s: %w", filepath.Base(final), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(final)
		return fmt.Errorf("close %s: %w", filepath.Base(final), err)
	}
	return nil
}

func (r *LocalArtifactRepository) placeWithSuffix(tmp, name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i <= maxSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		final := filepath.Join(r.dir, candidate)
		err := r.place(tmp, final, data)
		if err == nil {
			return final, nil
		}
		if !errors.Is(err, domain.ErrArtifactExists) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: no free name for %s", domain.ErrArtifactExists, name)
}

// Open returns a saved artifact for reading.
func (r *LocalArtifactRepository) Open(name string) (io.ReadSeekCloser, domain.SavedArtifact, error) {
	if err := ValidateArtifactName(name); err != nil {
		return nil, domain.SavedArtifact{}, err
	}

	path := filepath.Join(r.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.SavedArtifact{}, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, name)
		}
		return nil, domain.SavedArtifact{}, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, domain.SavedArtifact{}, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, domain.SavedArtifact{}, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, name)
	}

	return f, domain.SavedArtifact{Name: name, Path: path, Size: info.Size()}, nil
}

// ValidateArtifactName rejects anything that is not a plain file name.
func ValidateArtifactName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty name", domain.ErrInvalidFile)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is not a file name", domain.ErrInvalidFile, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", domain.ErrInvalidFile, name)
	case strings.HasPrefix(name, ".partial-"):
		return fmt.Errorf("%w: %q is reserved", domain.ErrInvalidFile, name)
	}
	return nil
}
