// Package pdf opens PDF bytes for the conversion pipeline. MuPDF (go-fitz)
// renders page text; pdfcpu lists the embedded image XObjects of each page.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"pdf-to-word/internal/domain"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

// Opener implements domain.SourceOpener.
type Opener struct {
	logger domain.Logger
}

// NewOpener creates a PDF opener
func NewOpener(logger domain.Logger) *Opener {
	// pdfcpu would otherwise create a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)
	return &Opener{logger: logger}
}

// Open parses data twice: once with MuPDF for text and once with pdfcpu for
// the image inventory. Either parser rejecting the bytes fails the open.
func (o *Opener) Open(data []byte) (domain.SourceDocument, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrSourceOpen)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceOpen, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		doc.Close()
		return nil, fmt.Errorf("%w: image inventory: %w", domain.ErrSourceOpen, err)
	}

	src := &Source{doc: doc, ctx: ctx, logger: o.logger}

	if pages := doc.NumPage(); pages != ctx.PageCount {
		o.logger.Warn("Page count mismatch between parsers", "mupdf", pages, "pdfcpu", ctx.PageCount)
	}

	metadata := doc.Metadata()
	o.logger.Debug("PDF opened",
		"pages", doc.NumPage(),
		"title", metadata["title"],
		"author", metadata["author"],
	)

	return src, nil
}

// Source implements domain.SourceDocument.
type Source struct {
	doc    *fitz.Document
	ctx    *model.Context
	logger domain.Logger
}

// PageCount follows MuPDF, which is the text source.
func (s *Source) PageCount() int {
	return s.doc.NumPage()
}

// PageText returns MuPDF's plain-text rendering of the page.
func (s *Source) PageText(pageIndex int) (string, error) {
	if pageIndex < 0 || pageIndex >= s.doc.NumPage() {
		return "", fmt.Errorf("page %d out of range", pageIndex+1)
	}
	return s.doc.Text(pageIndex)
}

// PageImages returns the page's images ordered by object number, which is
// the order they were written into the file. Each image is extracted on its
// own: one that pdfcpu cannot render is returned with Err set so the caller
// can skip it without losing the rest of the page. Page thumbnails are not
// part of the page content and are never returned.
func (s *Source) PageImages(pageIndex int) ([]domain.RawImage, error) {
	pageNr := pageIndex + 1
	if pageIndex < 0 || pageNr > s.ctx.PageCount || s.ctx.Optimize == nil {
		return nil, nil
	}

	objNrs := pdfcpu.ImageObjNrs(s.ctx, pageNr)
	sort.Ints(objNrs)

	images := make([]domain.RawImage, 0, len(objNrs))
	for _, objNr := range objNrs {
		obj, ok := s.ctx.Optimize.ImageObjects[objNr]
		if !ok || obj == nil || obj.ImageDict == nil {
			continue
		}

		raw := domain.RawImage{
			PageIndex: pageIndex,
			Index:     len(images),
			ObjectNr:  objNr,
		}
		if w := obj.ImageDict.IntEntry("Width"); w != nil {
			raw.Width = *w
		}
		if h := obj.ImageDict.IntEntry("Height"); h != nil {
			raw.Height = *h
		}

		data, format, err := s.extractImage(obj, pageNr, objNr)
		if err != nil {
			s.logger.Debug("Failed to extract image", "page", pageNr, "object", objNr, "error", err)
			raw.Err = err
		}
		raw.Format = format
		raw.Data = data
		images = append(images, raw)
	}
	return images, nil
}

// extractImage renders a single image XObject. pdfcpu decodes streams in
// place, so a panic on a malformed stream is turned into an error here.
func (s *Source) extractImage(obj *model.ImageObject, pageNr, objNr int) (data []byte, format domain.ImageFormat, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, format = nil, domain.ImageFormatUnknown
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	img, err := pdfcpu.ExtractImage(s.ctx, obj.ImageDict, false, obj.ResourceNames[pageNr-1], objNr, false)
	if err != nil {
		return nil, domain.ImageFormatUnknown, err
	}
	if img == nil || img.Reader == nil {
		return nil, domain.ImageFormatUnknown, fmt.Errorf("unsupported image filter %q", filterNames(obj.ImageDict))
	}

	data, err = io.ReadAll(img.Reader)
	if err != nil {
		return nil, domain.ImageFormatUnknown, fmt.Errorf("read image stream: %w", err)
	}
	return data, domain.ImageFormat(img.FileType), nil
}

func filterNames(sd *types.StreamDict) string {
	names := make([]string, 0, len(sd.FilterPipeline))
	for _, f := range sd.FilterPipeline {
		names = append(names, f.Name)
	}
	return strings.Join(names, ",")
}

// Close releases the MuPDF handle. The pdfcpu context is garbage collected.
func (s *Source) Close() error {
	return s.doc.Close()
}
