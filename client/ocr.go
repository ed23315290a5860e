package client

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoText is returned when an engine read nothing from an image
	ErrNoText = errors.New("ocr engine extracted no text")
	// ErrNoBarcode is returned when no supported barcode is found in an image
	ErrNoBarcode = errors.New("no barcode found")
)

// OCRResult is what an engine read from one image. TokenConfidences maps
// recognised tokens to the engine's own confidence, on the engine's scale.
type OCRResult struct {
	Lines            []string
	TokenConfidences map[string]float64
}

// OCREngine recognises text in an encoded image (PNG, JPEG, TIFF)
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (OCRResult, error)
}

// splitLines returns the non-empty trimmed lines of text
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// addToken records the weakest confidence seen for a token
func addToken(tokens map[string]float64, token string, confidence float64) {
	if token == "" {
		return
	}
	if prev, ok := tokens[token]; !ok || confidence < prev {
		tokens[token] = confidence
	}
}
