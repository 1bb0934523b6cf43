// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"pdf-to-word/internal/domain"
	"pdf-to-word/internal/infra/docx"
	"pdf-to-word/internal/repository"
	apperrors "pdf-to-word/pkg/errors"

	"github.com/gorilla/mux"
	"golang.org/x/sync/semaphore"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 10 << 20

// ConversionHandler handles conversion HTTP requests
type ConversionHandler struct {
	converter   domain.Converter
	repo        domain.ArtifactRepository
	slots       *semaphore.Weighted
	maxFileSize int64
	logger      domain.Logger
}

// ConversionResponse is the body of a successful upload.
type ConversionResponse struct {
	ID          string       `json:"id"`
	SourceName  string       `json:"source_name"`
	OutputName  string       `json:"output_name"`
	Location    string       `json:"location"`
	DownloadURL string       `json:"download_url"`
	RemotePath  string       `json:"remote_path,omitempty"`
	Stats       domain.Stats `json:"stats"`
}

// NewConversionHandler creates a new conversion handler. At most
// maxConcurrent conversions run at once; later requests wait for a slot.
func NewConversionHandler(
	converter domain.Converter,
	repo domain.ArtifactRepository,
	maxConcurrent int64,
	maxFileSize int64,
	logger domain.Logger,
) *ConversionHandler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ConversionHandler{
		converter:   converter,
		repo:        repo,
		slots:       semaphore.NewWeighted(maxConcurrent),
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// CreateConversion accepts a multipart PDF upload and converts it synchronously.
func (h *ConversionHandler) CreateConversion(w http.ResponseWriter, r *http.Request) {
	if h.maxFileSize > 0 {
		// Leave room for the multipart envelope; the service enforces the exact limit.
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartMemory)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAppError(w, apperrors.NewValidationError("File too large", fmt.Sprintf("maximum size is %d bytes", h.maxFileSize)))
			return
		}
		writeAppError(w, apperrors.NewValidationError("Invalid multipart form", err.Error()))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	// Validate file is present
	file, header, err := r.FormFile("file")
	if err != nil {
		writeAppError(w, apperrors.NewValidationError("File is required", `multipart field "file" is missing`))
		return
	}
	defer file.Close()

	// Sanitize filename (strip any path components)
	originalName := strings.TrimSpace(filepath.Base(strings.ReplaceAll(header.Filename, `\`, "/")))
	if originalName == "" || originalName == "." || originalName == "/" {
		originalName = "document.pdf"
	}

	if !strings.EqualFold(filepath.Ext(originalName), ".pdf") {
		writeAppError(w, apperrors.NewValidationError("Unsupported file type. Only PDF (.pdf) files can be converted."))
		return
	}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		writeAppError(w, apperrors.NewValidationError("File too large", fmt.Sprintf("maximum size is %d bytes", h.maxFileSize)))
		return
	}

	waitStart := time.Now()
	if err := h.slots.Acquire(r.Context(), 1); err != nil {
		writeAppError(w, apperrors.NewUnavailableError("Request canceled while waiting for a conversion slot", err))
		return
	}
	defer h.slots.Release(1)
	if waited := time.Since(waitStart); waited > time.Second {
		h.logger.Debug("Waited for conversion slot", "file", originalName, "waited", waited)
	}

	result := h.converter.Convert(r.Context(), originalName, file)
	if !result.OK() {
		appErr := failureToAppError(result.Failure)
		writeJSON(w, appErr.StatusCode, errorBody{
			Error:   appErr.Message,
			Kind:    failureKind(result.Failure),
			Details: failureDetails(result.Failure),
			ID:      result.ID,
		})
		return
	}

	out := result.Output
	writeJSON(w, http.StatusCreated, ConversionResponse{
		ID:          result.ID,
		SourceName:  result.SourceName,
		OutputName:  out.OutputName,
		Location:    out.Location,
		DownloadURL: "/api/v1/conversions/" + url.PathEscape(out.OutputName),
		RemotePath:  out.RemotePath,
		Stats:       out.Stats,
	})
}

// DownloadConversion streams a saved document as an attachment.
func (h *ConversionHandler) DownloadConversion(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := repository.ValidateArtifactName(name); err != nil {
		writeAppError(w, apperrors.NewValidationError("Invalid document name"))
		return
	}

	rc, info, err := h.repo.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrArtifactNotFound):
			writeAppError(w, apperrors.NewNotFoundError("Document not found"))
		case errors.Is(err, domain.ErrInvalidFile):
			writeAppError(w, apperrors.NewValidationError("Invalid document name"))
		default:
			h.logger.Error("Failed to open converted document", err, "name", name)
			writeAppError(w, apperrors.NewInternalError("Failed to open document", err))
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", docx.MIMEType)
	w.Header().Set("Content-Disposition", contentDisposition(info.Name))
	http.ServeContent(w, r, info.Name, time.Time{}, rc)
}

// failureToAppError maps a conversion failure onto an HTTP error.
func failureToAppError(f *domain.Failure) *apperrors.AppError {
	if f == nil {
		return apperrors.NewInternalError("Conversion produced no output", nil)
	}
	switch f.Kind {
	case domain.FailureValidation:
		return apperrors.NewValidationError(f.Message)
	case domain.FailureSourceOpen, domain.FailurePageExtraction:
		return apperrors.NewProcessingError(f.Message, f)
	case domain.FailureSave:
		if f.Conflict {
			return apperrors.NewConflictError(f.Message, f)
		}
		return apperrors.NewInternalError(f.Message, f)
	case domain.FailureCanceled:
		return apperrors.NewUnavailableError(f.Message, f)
	default:
		return apperrors.NewInternalError(f.Message, f)
	}
}

// failureDetails exposes the underlying error for failures caused by the
// input or the pipeline. Internal and canceled failures stay generic.
func failureDetails(f *domain.Failure) string {
	if f == nil {
		return ""
	}
	switch f.Kind {
	case domain.FailureSourceOpen, domain.FailurePageExtraction, domain.FailureOCREngine,
		domain.FailureRender, domain.FailureSave:
		return f.Detail()
	default:
		return ""
	}
}

func failureKind(f *domain.Failure) string {
	if f == nil {
		return string(domain.FailureInternal)
	}
	return string(f.Kind)
}

// contentDisposition quotes ASCII names and adds an RFC 5987 filename* for
// the rest, so Vietnamese file names survive the download.
func contentDisposition(name string) string {
	ascii := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, url.PathEscape(name))
}
