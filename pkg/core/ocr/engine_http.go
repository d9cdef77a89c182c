package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPEngine calls a remote OCR service. The service accepts a base64 payload
// and answers either plain text or hOCR; hOCR is flattened before returning.
type HTTPEngine struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPEngine creates an engine for the given service URL.
func NewHTTPEngine(baseURL, apiKey string) *HTTPEngine {
	return &HTTPEngine{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ocrRequest struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

type ocrResponse struct {
	Text  string `json:"text"`
	HOCR  string `json:"hocr,omitempty"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

// Recognize sends the document bytes to the OCR service.
func (e *HTTPEngine) Recognize(ctx context.Context, data []byte, mimeType string) (*Result, error) {
	if e.BaseURL == "" {
		return nil, fmt.Errorf("OCR service URL not configured")
	}

	body, err := json.Marshal(ocrRequest{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/v1/ocr", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out ocrResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to parse OCR response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("OCR service error: %s", out.Error)
	}

	text, pages := out.Text, out.Pages
	if out.HOCR != "" {
		text, pages = FlattenHOCR(out.HOCR)
	}
	if pages == 0 {
		pages = 1
	}
	return &Result{Text: text, Pages: pages}, nil
}
