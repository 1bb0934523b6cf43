package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"pdf-to-word/internal/domain"

	"github.com/google/uuid"
)

// OutputExtension is the extension of the produced container.
const OutputExtension = ".docx"

// ConversionSettings carries the fixed, startup-time pipeline configuration.
type ConversionSettings struct {
	Languages   []string
	OCRPolicy   domain.OCRFailurePolicy
	Marker      string
	MaxFileSize int64
}

// ConversionService runs the PDF to DOCX pipeline and persists the result.
type ConversionService struct {
	opener    domain.SourceOpener
	assembler *Assembler
	newWriter domain.DocumentWriterFactory
	repo      domain.ArtifactRepository
	publisher domain.ArtifactPublisher
	maxSize   int64
	logger    domain.Logger
}

// NewConversionService wires the pipeline. publisher may be nil.
func NewConversionService(
	opener domain.SourceOpener,
	decoder domain.ImageDecoder,
	recognizer domain.Recognizer,
	newWriter domain.DocumentWriterFactory,
	repo domain.ArtifactRepository,
	publisher domain.ArtifactPublisher,
	settings ConversionSettings,
	logger domain.Logger,
) *ConversionService {
	textExtractor := NewPageTextExtractor(logger)
	ocrExtractor := NewOCRExtractor(decoder, recognizer, settings.Languages, settings.OCRPolicy, logger)

	return &ConversionService{
		opener:    opener,
		assembler: NewAssembler(textExtractor, ocrExtractor, settings.Marker, logger),
		newWriter: newWriter,
		repo:      repo,
		publisher: publisher,
		maxSize:   settings.MaxFileSize,
		logger:    logger,
	}
}

// Convert reads a PDF, assembles it and saves the DOCX. Every fatal error,
// including a collaborator panic, is returned as the result's Failure.
func (s *ConversionService) Convert(ctx context.Context, sourceName string, src io.Reader) (result domain.ConversionResult) {
	id := uuid.New().String()
	result = domain.ConversionResult{ID: id, SourceName: sourceName}

	defer func() {
		if r := recover(); r != nil {
			result.Output = nil
			result.Failure = domain.NewFailure(domain.FailureInternal, "unexpected error during conversion", fmt.Errorf("panic: %v", r))
			s.logger.Error("Conversion panicked", result.Failure, "conversion_id", id, "source", sourceName)
		}
	}()

	out, err := s.convert(ctx, id, sourceName, src)
	if err != nil {
		failure := classifyFailure(err)
		s.logger.Error("Conversion failed", err,
			"conversion_id", id,
			"source", sourceName,
			"kind", string(failure.Kind),
		)
		result.Failure = failure
		return result
	}

	result.Output = out
	return result
}

func (s *ConversionService) convert(ctx context.Context, id, sourceName string, src io.Reader) (*domain.ConversionOutput, error) {
	start := time.Now()

	data, err := s.readSource(src)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Conversion started", "conversion_id", id, "source", sourceName, "bytes", len(data))

	doc, err := s.opener.Open(data)
	if err != nil {
		return nil, domain.NewFailure(domain.FailureSourceOpen, "the file is not a readable PDF", err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			s.logger.Warn("Failed to close source document", "conversion_id", id, "error", cerr)
		}
	}()

	artifact, stats, err := s.assembler.Assemble(ctx, doc)
	if err != nil {
		return nil, err
	}

	writer := s.newWriter()
	artifact.Render(writer)
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, domain.NewFailure(domain.FailureRender, "failed to build the Word document", fmt.Errorf("%w: %w", domain.ErrRender, err))
	}

	saved, err := s.repo.Save(ctx, OutputName(sourceName), buf.Bytes())
	if err != nil {
		failure := domain.NewFailure(domain.FailureSave, "failed to save the Word document", err)
		if errors.Is(err, domain.ErrArtifactExists) {
			failure.Message = "a converted document with this name already exists"
			failure.Conflict = true
		}
		return nil, failure
	}

	out := &domain.ConversionOutput{
		Artifact:   artifact,
		Data:       buf.Bytes(),
		OutputName: saved.Name,
		Location:   saved.Path,
	}

	if s.publisher != nil {
		remote, err := s.publisher.Publish(ctx, saved, out.Data)
		if err != nil {
			s.logger.Warn("Failed to publish converted document", "conversion_id", id, "name", saved.Name, "error", err)
		} else {
			out.RemotePath = remote
		}
	}

	stats.Duration = time.Since(start)
	out.Stats = stats

	s.logger.Info("Conversion complete",
		"conversion_id", id,
		"source", sourceName,
		"output", saved.Path,
		"pages", stats.Pages,
		"native_blocks", stats.NativeBlocks,
		"ocr_blocks", stats.OCRBlocks,
		"images_seen", stats.ImagesSeen,
		"images_skipped", stats.ImagesSkipped,
		"duration", stats.Duration,
	)

	return out, nil
}

// readSource reads at most maxSize bytes; anything larger is rejected.
func (s *ConversionService) readSource(src io.Reader) ([]byte, error) {
	if src == nil {
		return nil, domain.NewFailure(domain.FailureSourceOpen, "no input was provided", domain.ErrSourceOpen)
	}

	r := src
	if s.maxSize > 0 {
		r = io.LimitReader(src, s.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.NewFailure(domain.FailureSourceOpen, "failed to read the uploaded file", err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, domain.NewFailure(domain.FailureValidation,
			fmt.Sprintf("file exceeds the maximum size of %d bytes", s.maxSize), domain.ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, domain.NewFailure(domain.FailureSourceOpen, "the uploaded file is empty", domain.ErrSourceOpen)
	}
	return data, nil
}

// classifyFailure maps a pipeline error onto the failure taxonomy.
func classifyFailure(err error) *domain.Failure {
	var failure *domain.Failure
	if errors.As(err, &failure) {
		return failure
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.NewFailure(domain.FailureCanceled, "the conversion was canceled", err)
	case errors.Is(err, domain.ErrOCREngine):
		return domain.NewFailure(domain.FailureOCREngine, "text recognition failed", err)
	case errors.Is(err, domain.ErrPageExtraction):
		return domain.NewFailure(domain.FailurePageExtraction, "failed to read a page of the PDF", err)
	case errors.Is(err, domain.ErrSourceOpen):
		return domain.NewFailure(domain.FailureSourceOpen, "the file is not a readable PDF", err)
	case errors.Is(err, domain.ErrRender):
		return domain.NewFailure(domain.FailureRender, "failed to build the Word document", err)
	case errors.Is(err, domain.ErrFileTooLarge), errors.Is(err, domain.ErrInvalidFile):
		return domain.NewFailure(domain.FailureValidation, "the file was rejected", err)
	default:
		return domain.NewFailure(domain.FailureInternal, "unexpected error during conversion", err)
	}
}

// OutputName replaces the source file's extension with .docx.
// Directory components, including Windows-style ones, are dropped.
func OutputName(sourceName string) string {
	base := path.Base(strings.ReplaceAll(SanitizeText(sourceName), "\\", "/"))
	stem := strings.TrimSpace(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" || stem == "." || stem == "/" || stem == ".." {
		stem = "document"
	}
	return stem + OutputExtension
}
