package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"diarist/internal/domain"
)

func TestUploadSendsCredentialAndReturnsHandle(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v2/upload", map[string]any{
		"upload_url": "https://cdn.assemblyai.com/upload/abc",
	})

	client := newTestClient(t, transport)

	url, err := client.Upload(context.Background(), strings.NewReader("media-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.assemblyai.com/upload/abc" {
		t.Fatalf("upload url = %q", url)
	}
	if got := transport.lastRequest.Header.Get("Authorization"); got != "test-key" {
		t.Fatalf("authorization header = %q, want bare key", got)
	}
	if string(transport.lastBody) != "media-bytes" {
		t.Fatalf("uploaded body = %q", transport.lastBody)
	}
}

func TestSubmitEnablesDiarization(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v2/transcript", map[string]any{"id": "tr-123"})

	client := newTestClient(t, transport)

	id, err := client.Submit(context.Background(), "https://cdn.assemblyai.com/upload/abc")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "tr-123" {
		t.Fatalf("id = %q, want tr-123", id)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["audio_url"] != "https://cdn.assemblyai.com/upload/abc" {
		t.Fatalf("audio_url = %v", payload["audio_url"])
	}
	if payload["speaker_labels"] != true {
		t.Fatalf("speaker_labels = %v, want true", payload["speaker_labels"])
	}
	if payload["speakers_expected"] != float64(2) {
		t.Fatalf("speakers_expected = %v, want 2", payload["speakers_expected"])
	}
}

func TestPollDecodesUtterances(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v2/transcript/tr-123", map[string]any{
		"id":     "tr-123",
		"status": "completed",
		"utterances": []any{
			map[string]any{"speaker": "A", "text": "hi", "start": 0, "end": 5000},
		},
	})

	client := newTestClient(t, transport)

	remote, err := client.Poll(context.Background(), "tr-123")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if remote.Status != "completed" {
		t.Fatalf("status = %q", remote.Status)
	}
	if len(remote.Utterances) != 1 || remote.Utterances[0].End != 5000 {
		t.Fatalf("utterances = %#v", remote.Utterances)
	}
}

func TestNonSuccessStatusIsProviderUnavailable(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.responses["/v2/upload"] = responseStub{
		status: http.StatusUnauthorized,
		body:   []byte(`{"error":"bad api key"}`),
	}

	client := newTestClient(t, transport)

	if _, err := client.Upload(context.Background(), strings.NewReader("x")); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("upload error = %v, want ErrProviderUnavailable", err)
	}
}

func TestTransportFailureIsProviderUnavailable(t *testing.T) {
	client := newTestClient(t, &failingTransport{})

	if _, err := client.Poll(context.Background(), "tr-123"); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("poll error = %v, want ErrProviderUnavailable", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
}

func newTestClient(t *testing.T, transport http.RoundTripper) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "test-key",
		BaseURL:    "https://api.test/v2",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

type captureTransport struct {
	responses   map[string]responseStub
	lastRequest *http.Request
	lastBody    []byte
}

type responseStub struct {
	status int
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastRequest = req
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	if stub, ok := c.responses[req.URL.Path]; ok {
		return stub.toResponse(), nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{status: http.StatusOK, body: body}
}

func (s responseStub) toResponse() *http.Response {
	return &http.Response{
		StatusCode: s.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}
