package synth

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

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
	defaultLanguage   = "en"
)

// Static errors.
var (
	ErrTextEmpty             = errors.New("text cannot be empty")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrEmptyAudio            = errors.New("received empty audio data")
	ErrServiceStatus         = errors.New("TTS service returned non-OK status")
	ErrUnhealthy             = errors.New("TTS service is unhealthy")
)

// HTTPClient talks to a standalone TTS HTTP service.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// SpeechRequest is the JSON payload of a generation request.
type SpeechRequest struct {
	// Text is the utterance to render. Must be non-empty.
	Text string `json:"text"`

	// SpeakerRefPath optionally points at a voice sample for cloning.
	// If empty, the service uses its default speaker.
	SpeakerRefPath string `json:"speaker_ref_path,omitempty"`

	// Language is the target language code. Defaults to "en".
	Language string `json:"language"`

	Pitch   float64 `json:"pitch"`
	Speed   float64 `json:"speed"`
	Emotion string  `json:"emotion"`
}

// ErrorResponse is the structured error body returned by the service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates a client for the service at baseURL
// (e.g. "http://localhost:8000"). The timeout applies to every request.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateSpeech sends a generation request and returns the WAV bytes.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	if req.Language == "" {
		req.Language = defaultLanguage
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeWAV {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedContentType, contentTypeWAV, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the service is reachable and reports healthy.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrUnhealthy, resp.Status)
	}

	return nil
}

// parseErrorResponse decodes a structured error, falling back to the raw body.
func parseErrorResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("%w: %s", ErrServiceStatus, resp.Status)
	}

	var errorResp ErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf("%w: %s: %s (code: %s)", ErrServiceStatus, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf("%w: %s, body: %s", ErrServiceStatus, resp.Status, string(body))
}
