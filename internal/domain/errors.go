package domain

import "errors"

// Domain errors
var (
	ErrSourceOpen       = errors.New("source document cannot be opened")
	ErrPageExtraction   = errors.New("page extraction failed")
	ErrImageDecode      = errors.New("image cannot be decoded")
	ErrOCREngine        = errors.New("ocr engine failed")
	ErrRender           = errors.New("document rendering failed")
	ErrArtifactExists   = errors.New("artifact already exists")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
)
