package service

import (
	"context"
	"errors"
	"image"
	"testing"

	"pdf-to-word/internal/domain"
)

func TestOCRExtractor_Extract(t *testing.T) {
	tests := []struct {
		name        string
		policy      domain.OCRFailurePolicy
		images      []domain.RawImage
		wantTexts   []string
		wantSkipped int
		wantErr     error
	}{
		// No images gives an empty result
		{name: "no images", policy: domain.OCRFailureAbort, wantTexts: nil},
		// Extraction order is preserved
		{
			name:      "ordered",
			policy:    domain.OCRFailureAbort,
			images:    []domain.RawImage{rawImage(0, 0, "one"), rawImage(0, 1, "two")},
			wantTexts: []string{"one", "two"},
		},
		// Undecodable images are skipped under either policy
		{
			name:        "corrupt skipped under abort",
			policy:      domain.OCRFailureAbort,
			images:      []domain.RawImage{rawImage(0, 0, "corrupt"), rawImage(0, 1, "two")},
			wantTexts:   []string{"two"},
			wantSkipped: 1,
		},
		// A panicking decoder counts as an undecodable image
		{
			name:        "decoder panic skipped",
			policy:      domain.OCRFailureAbort,
			images:      []domain.RawImage{rawImage(0, 0, "panic"), rawImage(0, 1, "ok")},
			wantTexts:   []string{"ok"},
			wantSkipped: 1,
		},
		// An image the PDF layer could not extract is skipped and counted
		{
			name:   "extraction failure skipped",
			policy: domain.OCRFailureAbort,
			images: []domain.RawImage{
				rawImage(0, 0, "one"),
				{PageIndex: 0, Index: 1, Err: errors.New("unsupported image filter \"JBIG2Decode\"")},
				rawImage(0, 2, "three"),
			},
			wantTexts:   []string{"one", "three"},
			wantSkipped: 1,
		},
		// Engine errors abort by default
		{
			name:    "engine error aborts",
			policy:  domain.OCRFailureAbort,
			images:  []domain.RawImage{rawImage(0, 0, "one"), rawImage(0, 1, "engine-error")},
			wantErr: domain.ErrOCREngine,
		},
		// Engine errors are skipped under the skip policy
		{
			name:        "engine error skipped",
			policy:      domain.OCRFailureSkip,
			images:      []domain.RawImage{rawImage(0, 0, "engine-error"), rawImage(0, 1, "two")},
			wantTexts:   []string{"two"},
			wantSkipped: 1,
		},
		// Blank OCR output is not a block and not a skip
		{
			name:      "blank result",
			policy:    domain.OCRFailureAbort,
			images:    []domain.RawImage{rawImage(0, 0, " \n "), rawImage(0, 1, "x")},
			wantTexts: []string{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewOCRExtractor(fakeDecoder{}, &fakeRecognizer{}, []string{"vie", "eng"}, tt.policy, NewMockLogger())
			doc := &fakeSource{pages: []fakePage{{images: tt.images}}}

			res, err := extractor.Extract(context.Background(), doc, 0)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if len(res.Texts) != len(tt.wantTexts) {
				t.Fatalf("Expected %d texts, got %d (%q)", len(tt.wantTexts), len(res.Texts), res.Texts)
			}
			for i := range tt.wantTexts {
				if res.Texts[i] != tt.wantTexts[i] {
					t.Errorf("text[%d] = %q, want %q", i, res.Texts[i], tt.wantTexts[i])
				}
			}
			if res.Seen != len(tt.images) {
				t.Errorf("Expected %d images seen, got %d", len(tt.images), res.Seen)
			}
			if res.Skipped != tt.wantSkipped {
				t.Errorf("Expected %d skipped, got %d", tt.wantSkipped, res.Skipped)
			}
		})
	}
}

func TestOCRExtractor_PassesLanguages(t *testing.T) {
	rec := &fakeRecognizer{}
	langs := []string{"vie", "eng"}
	extractor := NewOCRExtractor(fakeDecoder{}, rec, langs, domain.OCRFailureAbort, NewMockLogger())

	// Mutating the caller's slice must not change the configured set
	langs[0] = "fra"

	doc := &fakeSource{pages: []fakePage{{images: []domain.RawImage{rawImage(0, 0, "a"), rawImage(0, 1, "b")}}}}
	if _, err := extractor.Extract(context.Background(), doc, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(rec.languages) != 2 {
		t.Fatalf("Expected 2 recognizer calls, got %d", len(rec.languages))
	}
	for _, got := range rec.languages {
		if len(got) != 2 || got[0] != "vie" || got[1] != "eng" {
			t.Errorf("Expected languages [vie eng], got %v", got)
		}
	}
}

// cancelingRecognizer cancels the context on its first call.
type cancelingRecognizer struct {
	cancel context.CancelFunc
	calls  int
}

func (r *cancelingRecognizer) Recognize(ctx context.Context, img image.Image, languages []string) (string, error) {
	r.calls++
	r.cancel()
	return "text", nil
}

func TestOCRExtractor_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &cancelingRecognizer{cancel: cancel}
	extractor := NewOCRExtractor(fakeDecoder{}, rec, []string{"eng"}, domain.OCRFailureSkip, NewMockLogger())
	doc := &fakeSource{pages: []fakePage{{images: []domain.RawImage{
		rawImage(0, 0, "a"), rawImage(0, 1, "b"), rawImage(0, 2, "c"),
	}}}}

	_, err := extractor.Extract(ctx, doc, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("Expected 1 recognizer call before cancel, got %d", rec.calls)
	}
}
