// Package assemblyai wraps the AssemblyAI v2 HTTP API: byte upload,
// transcription submission with speaker diarization, and transcript
// polling. The API surface is treated as a fixed contract.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"diarist/internal/domain"
	"diarist/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("assemblyai: api key is required")

// Options configures the AssemblyAI client.
type Options struct {
	APIKey           string
	BaseURL          string
	SpeakersExpected int
	HTTPClient       *http.Client
	Logger           *infra.Logger
	RequestTimeout   time.Duration
}

// Client performs HTTP calls to the AssemblyAI v2 API.
type Client struct {
	apiKey           string
	baseURL          string
	speakersExpected int
	httpClient       *http.Client
	logger           *infra.Logger
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type submitRequest struct {
	AudioURL         string `json:"audio_url"`
	SpeakerLabels    bool   `json:"speaker_labels"`
	SpeakersExpected int    `json:"speakers_expected"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// Utterance is one diarized span as reported by the provider. Start and End
// are in milliseconds.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
}

// Transcript is the provider's view of a transcription job.
type Transcript struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	Error      string      `json:"error"`
	Utterances []Utterance `json:"utterances"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.assemblyai.com/v2"
	}
	speakers := opts.SpeakersExpected
	if speakers <= 0 {
		speakers = 2
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:           strings.TrimSpace(opts.APIKey),
		baseURL:          baseURL,
		speakersExpected: speakers,
		httpClient:       httpClient,
		logger:           logger,
	}, nil
}

// Upload streams raw media bytes to the provider and returns the content
// handle URL to submit a transcription against.
func (c *Client) Upload(ctx context.Context, media io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", media)
	if err != nil {
		return "", fmt.Errorf("assemblyai: build upload request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var decoded uploadResponse
	if err := c.do(req, &decoded); err != nil {
		return "", fmt.Errorf("assemblyai: upload: %w", err)
	}
	if decoded.UploadURL == "" {
		return "", fmt.Errorf("assemblyai: upload: empty upload_url: %w", domain.ErrProviderUnavailable)
	}
	c.logger.Debug().Str("upload_url", decoded.UploadURL).Msg("assemblyai: media uploaded")
	return decoded.UploadURL, nil
}

// Submit requests a transcription of the uploaded media with speaker
// diarization enabled and returns the provider-assigned job id.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	payload := submitRequest{
		AudioURL:         audioURL,
		SpeakerLabels:    true,
		SpeakersExpected: c.speakersExpected,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("assemblyai: encode submit request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("assemblyai: build submit request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var decoded submitResponse
	if err := c.do(req, &decoded); err != nil {
		return "", fmt.Errorf("assemblyai: submit: %w", err)
	}
	if decoded.ID == "" {
		return "", fmt.Errorf("assemblyai: submit: empty transcript id: %w", domain.ErrProviderUnavailable)
	}
	c.logger.Debug().Str("transcript_id", decoded.ID).Msg("assemblyai: transcription submitted")
	return decoded.ID, nil
}

// Poll fetches the current provider-side state of a transcription job,
// including utterances once the job has completed.
func (c *Client) Poll(ctx context.Context, id string) (*Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("assemblyai: build poll request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	var decoded Transcript
	if err := c.do(req, &decoded); err != nil {
		return nil, fmt.Errorf("assemblyai: poll %s: %w", id, err)
	}
	return &decoded, nil
}

// do executes the request and decodes a JSON response body into out. Every
// transport failure and non-2xx status collapses into ErrProviderUnavailable
// so callers only deal with the taxonomy.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %v: %w", err, domain.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %v: %w", err, domain.ErrProviderUnavailable)
	}
	if resp.StatusCode >= 300 {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("url", req.URL.Path).
			Str("body", strings.TrimSpace(string(raw))).
			Msg("assemblyai: non-success response")
		return fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrProviderUnavailable)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %v: %w", err, domain.ErrProviderUnavailable)
	}
	return nil
}
