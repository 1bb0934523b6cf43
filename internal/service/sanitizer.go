package service

import (
	"fmt"
	"strings"

	"pdf-to-word/internal/domain"
)

// isIllegalControl reports whether r is a C0 control character that WordprocessingML
// rejects. Tab, line feed and carriage return are allowed.
func isIllegalControl(r rune) bool {
	return r < 0x20 && r != '\t' && r != '\n' && r != '\r'
}

// SanitizeText removes U+0000-U+0008, U+000B, U+000C and U+000E-U+001F.
// Everything else, including C1 controls and non-ASCII text, is kept in order.
func SanitizeText(text string) string {
	if !strings.ContainsFunc(text, isIllegalControl) {
		return text
	}
	return strings.Map(func(r rune) rune {
		if isIllegalControl(r) {
			return -1
		}
		return r
	}, text)
}

// SanitizeValue sanitizes anything that may carry text. Nil and non-text
// values yield an empty string.
func SanitizeValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return SanitizeText(t)
	case *string:
		if t == nil {
			return ""
		}
		return SanitizeText(*t)
	case []byte:
		return SanitizeText(string(t))
	case fmt.Stringer:
		return SanitizeText(stringerText(t))
	default:
		return ""
	}
}

// stringerText calls String, treating a panic (typically a nil pointer
// receiver) as no text.
func stringerText(s fmt.Stringer) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	return s.String()
}

// NewTextBlock is the only way the pipeline builds a TextBlock, so every
// block's text has been through SanitizeText.
func NewTextBlock(text string, provenance domain.Provenance, pageIndex int) domain.TextBlock {
	return domain.TextBlock{
		Text:       SanitizeText(text),
		Provenance: provenance,
		PageIndex:  pageIndex,
	}
}
