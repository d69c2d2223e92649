package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpAnalyzer calls the external analysis service over HTTP.
type httpAnalyzer struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
}

// NewHTTPAnalyzer creates an Analyzer backed by the analysis service at
// endpoint. The timeout is enforced per call on top of whatever deadline
// the caller's context carries.
func NewHTTPAnalyzer(endpoint, apiKey string, timeout time.Duration) Analyzer {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &httpAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		client:   &http.Client{},
	}
}

type analyzeRequest struct {
	VideoURL string `json:"video_url"`
}

// AnalyzeVideo posts the video URL to the analysis service and decodes the
// extracted exercise list. All failure modes come back as *UpstreamError.
func (a *httpAnalyzer) AnalyzeVideo(ctx context.Context, videoURL string) (*Result, error) {
	if videoURL == "" {
		return nil, &UpstreamError{Err: errors.New("video URL is empty")}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body, err := json.Marshal(analyzeRequest{VideoURL: videoURL})
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded chunk of the body for the error message.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{Err: fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, msg)}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("decoding analysis response: %w", err)}
	}

	return &result, nil
}
