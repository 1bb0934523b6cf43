package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"strings"
	"sync"

	"pdf-to-word/internal/domain"
)

// MockLogger discards everything but keeps warnings for assertions.
type MockLogger struct {
	mu    sync.Mutex
	warns []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (l *MockLogger) Info(msg string, fields ...interface{})             {}
func (l *MockLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockLogger) Warn(msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *MockLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

// fakePage describes one page of a fakeSource.
type fakePage struct {
	text      string
	images    []domain.RawImage
	textErr   error
	imagesErr error
}

type fakeSource struct {
	pages  []fakePage
	closed bool
}

func (s *fakeSource) PageCount() int { return len(s.pages) }

func (s *fakeSource) PageText(i int) (string, error) {
	return s.pages[i].text, s.pages[i].textErr
}

func (s *fakeSource) PageImages(i int) ([]domain.RawImage, error) {
	return s.pages[i].images, s.pages[i].imagesErr
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	source *fakeSource
	err    error
}

func (o *fakeOpener) Open(data []byte) (domain.SourceDocument, error) {
	if o.err != nil {
		return nil, o.err
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, errors.New("no PDF header")
	}
	return o.source, nil
}

// labelledImage carries the text the fake recognizer should "see".
type labelledImage struct {
	*image.Gray
	label string
}

// fakeDecoder turns image bytes into a labelledImage; "corrupt" bytes fail.
type fakeDecoder struct{}

func (fakeDecoder) Decode(raw domain.RawImage) (image.Image, error) {
	payload := string(raw.Data)
	if payload == "corrupt" {
		return nil, errors.New("unexpected EOF")
	}
	if payload == "panic" {
		panic("index out of range")
	}
	return labelledImage{Gray: image.NewGray(image.Rect(0, 0, 4, 4)), label: payload}, nil
}

// fakeRecognizer returns the label; "engine-error" simulates a broken backend.
type fakeRecognizer struct {
	mu        sync.Mutex
	languages [][]string
}

func (r *fakeRecognizer) Recognize(ctx context.Context, img image.Image, languages []string) (string, error) {
	r.mu.Lock()
	r.languages = append(r.languages, languages)
	r.mu.Unlock()

	li, ok := img.(labelledImage)
	if !ok {
		return "", nil
	}
	if li.label == "engine-error" {
		return "", errors.New("failed loading language 'vie'")
	}
	return li.label, nil
}

func rawImage(page, index int, payload string) domain.RawImage {
	return domain.RawImage{PageIndex: page, Index: index, Format: domain.ImageFormatPNG, Data: []byte(payload)}
}

// memoryRepository is an in-memory ArtifactRepository.
type memoryRepository struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{files: make(map[string][]byte)}
}

func (m *memoryRepository) Save(ctx context.Context, name string, data []byte) (domain.SavedArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.SavedArtifact{}, m.err
	}
	m.files[name] = append([]byte(nil), data...)
	return domain.SavedArtifact{Name: name, Path: "mem://" + name, Size: int64(len(data))}, nil
}

func (m *memoryRepository) Open(name string) (io.ReadSeekCloser, domain.SavedArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, domain.SavedArtifact{}, domain.ErrArtifactNotFound
	}
	return nopSeekCloser{bytes.NewReader(data)}, domain.SavedArtifact{Name: name, Size: int64(len(data))}, nil
}

func (m *memoryRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }

// stubWriter records calls and renders a readable transcript.
type stubWriter struct {
	ops []string
	err error
}

func (w *stubWriter) AddParagraph(text string) { w.ops = append(w.ops, text) }
func (w *stubWriter) AddPageBreak()            { w.ops = append(w.ops, "<page-break>") }
func (w *stubWriter) WriteTo(out io.Writer) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := io.WriteString(out, strings.Join(w.ops, "\n"))
	return int64(n), err
}

type stubPublisher struct {
	published []string
	err       error
}

func (p *stubPublisher) Publish(ctx context.Context, artifact domain.SavedArtifact, data []byte) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.published = append(p.published, artifact.Name)
	return "converted/" + artifact.Name, nil
}
