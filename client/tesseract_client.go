package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractClient runs the local Tesseract engine through gosseract
type TesseractClient struct {
	dataPath string
	language string
}

func NewTesseractClient(dataPath, language string) *TesseractClient {
	if language == "" {
		language = "eng"
	}
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
	}
}

// Recognize extracts text lines and per-word confidences (0-100) from an image.
// Tesseract cannot be interrupted, so ctx is only checked before the call.
func (tc *TesseractClient) Recognize(ctx context.Context, image []byte) (OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return OCRResult{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(tc.language); err != nil {
		return OCRResult{}, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return OCRResult{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return OCRResult{}, fmt.Errorf("failed to extract text: %w", err)
	}

	lines := splitLines(text)
	if len(lines) == 0 {
		return OCRResult{}, ErrNoText
	}

	tokens := map[string]float64{}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// text is still usable, the extractor falls back to label strength
		slog.Warn("tesseract word confidences unavailable", "error", err)
	}
	for _, box := range boxes {
		addToken(tokens, strings.TrimSpace(box.Word), box.Confidence)
	}

	return OCRResult{Lines: lines, TokenConfidences: tokens}, nil
}
