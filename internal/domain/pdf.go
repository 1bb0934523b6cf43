package domain

import (
	"context"
	"image"
)

// ImageFormat is the encoding implied by an embedded image's PDF filter
// (e.g. "jpg" for DCTDecode, "png" for Flate-encoded rasters).
type ImageFormat string

const (
	ImageFormatJPEG    ImageFormat = "jpg"
	ImageFormatPNG     ImageFormat = "png"
	ImageFormatTIFF    ImageFormat = "tif"
	ImageFormatJPX     ImageFormat = "jpx"
	ImageFormatUnknown ImageFormat = ""
)

// RawImage is an embedded image extracted from a single page.
// It has no identity beyond "the Index-th image found on page PageIndex".
type RawImage struct {
	PageIndex int
	Index     int
	ObjectNr  int
	Format    ImageFormat
	Width     int
	Height    int
	Data      []byte
	// Err is set when the image could not be pulled out of the PDF
	// (unsupported filter, corrupt stream). Data is empty in that case.
	Err error
}

// SourceDocument is an opened PDF. It is read-only and owned by one conversion.
type SourceDocument interface {
	// PageCount returns the number of pages.
	PageCount() int
	// PageText returns the plain-text rendering of a zero-based page.
	// A page without extractable text yields "" and a nil error.
	PageText(pageIndex int) (string, error)
	// PageImages returns the embedded images of a zero-based page in extraction order.
	PageImages(pageIndex int) ([]RawImage, error)
	// Close releases the parse.
	Close() error
}

// SourceOpener opens PDF bytes into a SourceDocument.
type SourceOpener interface {
	Open(data []byte) (SourceDocument, error)
}

// ImageDecoder turns raw image bytes into a pixel buffer.
// Malformed input fails with an error wrapping ErrImageDecode.
type ImageDecoder interface {
	Decode(raw RawImage) (image.Image, error)
}

// Recognizer runs OCR over a pixel buffer.
// No text found is reported as "" with a nil error.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, languages []string) (string, error)
}
