package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	dErrors "kioskgate/pkg/domain-errors"
)

// Extractor is the readiness handle for the face-embedding collaborator. It
// is obtained once at startup and injected; a collaborator that is down or
// still loading reports through ErrNotReady-style coded errors rather than an
// ambient global flag.
type Extractor interface {
	// Extract turns a captured frame into a probe embedding.
	Extract(ctx context.Context, image []byte) ([]float64, error)
	// Ready reports whether the collaborator can currently serve requests.
	Ready(ctx context.Context) bool
}

// HTTPExtractor calls an embedding-extraction service over HTTP. The model
// behind it is a black box; this adapter only moves bytes.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPExtractor(baseURL string, client *http.Client) *HTTPExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPExtractor{baseURL: baseURL, client: client}
}

type extractResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *HTTPExtractor) Extract(ctx context.Context, image []byte) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeExtractorDown, "embedding extractor is unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeExtractorDown,
			fmt.Sprintf("embedding extractor returned status %d", resp.StatusCode))
	}

	var body extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeExtractorDown, "embedding extractor returned an unreadable response")
	}
	if len(body.Embedding) == 0 {
		return nil, dErrors.New(dErrors.CodeNoMatch, "no face detected in the captured frame")
	}
	return body.Embedding, nil
}

func (e *HTTPExtractor) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
