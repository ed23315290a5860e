package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultPaddleURL is the PaddleHub OCR serving endpoint
const DefaultPaddleURL = "http://paddleocr:8866/predict/ocr_system"

// PaddleClient calls a PaddleOCR REST service
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
}

// NewPaddleClient creates a new PaddleOCR client
func NewPaddleClient(apiURL string) *PaddleClient {
	if apiURL == "" {
		apiURL = DefaultPaddleURL
	}
	return &PaddleClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type paddleResponse struct {
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// Recognize sends the image to PaddleOCR. The service reports one confidence
// per line (0-1); every token of a line inherits it.
func (p *PaddleClient) Recognize(ctx context.Context, image []byte) (OCRResult, error) {
	payload := map[string]interface{}{
		"images": []string{base64.StdEncoding.EncodeToString(image)},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return OCRResult{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return OCRResult{}, fmt.Errorf("failed to build PaddleOCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return OCRResult{}, fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return OCRResult{}, fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return OCRResult{}, fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	out := OCRResult{TokenConfidences: map[string]float64{}}
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			out.Lines = append(out.Lines, text)
			for _, tok := range strings.Fields(text) {
				addToken(out.TokenConfidences, tok, line.Confidence)
			}
		}
	}

	if len(out.Lines) == 0 {
		return OCRResult{}, ErrNoText
	}
	return out, nil
}
