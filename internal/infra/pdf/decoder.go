package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"pdf-to-word/internal/domain"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels caps decoded image area (about 64 megapixels).
const DefaultMaxPixels = 1 << 26

// ImageDecoder implements domain.ImageDecoder with the registered image codecs.
// JPEG 2000 streams have no Go decoder and fail as undecodable.
type ImageDecoder struct {
	maxPixels int
}

// NewImageDecoder creates a decoder. maxPixels <= 0 selects DefaultMaxPixels.
func NewImageDecoder(maxPixels int) *ImageDecoder {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &ImageDecoder{maxPixels: maxPixels}
}

// Decode sniffs the format from the bytes rather than trusting the PDF filter.
func (d *ImageDecoder) Decode(raw domain.RawImage) (image.Image, error) {
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image stream", domain.ErrImageDecode)
	}
	if raw.Format == domain.ImageFormatJPX {
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrImageDecode, raw.Format)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", domain.ErrImageDecode, cfg.Width, cfg.Height)
	}
	if cfg.Width > d.maxPixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", domain.ErrImageDecode, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrImageDecode, format, err)
	}
	return img, nil
}
