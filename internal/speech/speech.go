// Package speech sends recorded answers to a hosted speech-to-text service.
package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the hosted pre-recorded transcription endpoint.
const DefaultEndpoint = "https://api.deepgram.com/v1/listen"

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4096

// APIError is a non-2xx response. Message is the response body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription failed with status %d: %s", e.StatusCode, e.Message)
}

// Client transcribes audio in one request. It does not retry or chunk.
type Client struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the transcription endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithModel sets the model query parameter.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		model:      "nova-2",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe uploads audio and returns the best transcript. An empty transcript
// is not an error.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, contentType string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("speech API key is not configured")
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid speech endpoint: %w", err)
	}
	q := u.Query()
	if c.model != "" {
		q.Set("model", c.model)
	}
	q.Set("smart_format", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), audio)
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	if contentType == "" {
		contentType = "audio/webm"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}
	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return out.Results.Channels[0].Alternatives[0].Transcript, nil
}
