package domain

import (
	"fmt"
	"strings"
	"time"
)

// FailureKind tags why a conversion failed.
type FailureKind string

const (
	FailureValidation     FailureKind = "validation"
	FailureSourceOpen     FailureKind = "source_open"
	FailurePageExtraction FailureKind = "page_extraction"
	FailureOCREngine      FailureKind = "ocr_engine"
	FailureRender         FailureKind = "render"
	FailureSave           FailureKind = "save"
	FailureCanceled       FailureKind = "canceled"
	FailureInternal       FailureKind = "internal"
)

// Failure is the single error value a failed conversion surfaces.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	// Conflict is set when a save failed because the target name was taken.
	Conflict bool  `json:"conflict,omitempty"`
	Cause    error `json:"-"`
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Detail returns the underlying error text, or "" when there is no cause.
func (f *Failure) Detail() string {
	if f == nil || f.Cause == nil {
		return ""
	}
	return f.Cause.Error()
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// NewFailure builds a Failure.
func NewFailure(kind FailureKind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Cause: cause}
}

// Stats summarizes one conversion.
type Stats struct {
	Pages         int           `json:"pages"`
	NativeBlocks  int           `json:"native_blocks"`
	OCRBlocks     int           `json:"ocr_blocks"`
	ImagesSeen    int           `json:"images_seen"`
	ImagesSkipped int           `json:"images_skipped"`
	Duration      time.Duration `json:"duration_ns"`
}

// ConversionOutput is the success side of a ConversionResult.
type ConversionOutput struct {
	Artifact   *Artifact `json:"-"`
	Data       []byte    `json:"-"`
	OutputName string    `json:"output_name"`
	Location   string    `json:"location"`
	RemotePath string    `json:"remote_path,omitempty"`
	Stats      Stats     `json:"stats"`
}

// ConversionResult is either an Output or a Failure, never both.
type ConversionResult struct {
	ID         string            `json:"id"`
	SourceName string            `json:"source_name"`
	Output     *ConversionOutput `json:"output,omitempty"`
	Failure    *Failure          `json:"failure,omitempty"`
}

// OK reports whether the conversion succeeded.
func (r ConversionResult) OK() bool {
	return r.Failure == nil && r.Output != nil
}

// OCRFailurePolicy decides what an OCR engine error does to the run.
type OCRFailurePolicy string

const (
	OCRFailureAbort OCRFailurePolicy = "abort"
	OCRFailureSkip  OCRFailurePolicy = "skip"
)

// ParseOCRFailurePolicy maps a config string to a policy, defaulting to abort.
func ParseOCRFailurePolicy(s string) OCRFailurePolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(OCRFailureSkip)) {
		return OCRFailureSkip
	}
	return OCRFailureAbort
}

// CollisionPolicy decides what saving onto an existing artifact name does.
type CollisionPolicy string

const (
	CollisionSuffix    CollisionPolicy = "suffix"
	CollisionOverwrite CollisionPolicy = "overwrite"
	CollisionReject    CollisionPolicy = "reject"
)

// ParseCollisionPolicy maps a config string to a policy, defaulting to suffix.
func ParseCollisionPolicy(s string) CollisionPolicy {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case CollisionOverwrite:
		return CollisionOverwrite
	case CollisionReject:
		return CollisionReject
	default:
		return CollisionSuffix
	}
}
