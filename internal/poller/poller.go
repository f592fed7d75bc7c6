// Package poller implements the consumer side of the transcription flow: a
// single-threaded state machine that uploads a media file and then polls
// the service on a fixed cadence until the job reaches a terminal state.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"diarist/internal/transcript"
)

// State enumerates the client-side lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StatePolling   State = "polling"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Progress milestones per observed status.
const (
	progressUploaded   = 30
	progressQueued     = 40
	progressProcessing = 60
	progressCompleted  = 100
)

// ErrBusy is returned when Submit is called while a run is in flight.
var ErrBusy = errors.New("poller: submission already in progress")

// Options configures a Poller.
type Options struct {
	BaseURL    string
	Interval   time.Duration
	HTTPClient *http.Client
	// OnProgress, when set, is invoked each time the progress indicator
	// increases. It runs on the polling goroutine.
	OnProgress func(percent int)
}

// Poller drives one upload-and-poll cycle at a time. It is not safe for
// concurrent use: exactly one status request is outstanding at any moment,
// and a new poll is only issued after the previous one resolves.
type Poller struct {
	baseURL  string
	interval time.Duration
	client   *http.Client

	state      State
	jobID      string
	progress   int
	message    string
	segments   []transcript.Segment
	onProgress func(int)
}

func New(opts Options) *Poller {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		interval:   interval,
		client:     client,
		state:      StateIdle,
		onProgress: opts.OnProgress,
	}
}

func (p *Poller) State() State { return p.state }

func (p *Poller) JobID() string { return p.jobID }

func (p *Poller) Progress() int { return p.progress }

func (p *Poller) Message() string { return p.message }

func (p *Poller) Segments() []transcript.Segment { return p.segments }

// Submit uploads the media file and moves the machine into polling state.
// A terminal machine (done or failed) may submit again; uploading and
// polling machines may not.
func (p *Poller) Submit(ctx context.Context, path string) error {
	switch p.state {
	case StateUploading, StatePolling:
		return ErrBusy
	}
	p.state = StateUploading
	p.jobID = ""
	p.progress = 0
	p.message = ""
	p.segments = nil

	id, err := p.upload(ctx, path)
	if err != nil {
		p.fail(err.Error())
		return err
	}
	p.jobID = id
	p.state = StatePolling
	p.setProgress(progressUploaded)
	return nil
}

// PollOnce issues a single status request and advances the machine. It
// returns the state after the poll; any request or provider failure lands
// in failed.
func (p *Poller) PollOnce(ctx context.Context) State {
	if p.state != StatePolling {
		return p.state
	}

	status, errMsg, err := p.fetchStatus(ctx)
	if err != nil {
		p.fail(err.Error())
		return p.state
	}

	switch status {
	case "queued":
		p.setProgress(progressQueued)
	case "processing":
		p.setProgress(progressProcessing)
	case "completed":
		p.setProgress(progressCompleted)
		segments, err := p.fetchTranscript(ctx)
		if err != nil {
			p.fail(err.Error())
			return p.state
		}
		p.segments = segments
		p.state = StateDone
	case "error":
		if errMsg == "" {
			errMsg = "transcription failed"
		}
		p.fail(errMsg)
	default:
		// Unknown but non-terminal; keep polling.
	}
	return p.state
}

// Run polls on the configured interval until the machine leaves polling or
// ctx is cancelled. Cancellation stops the timer; an in-flight request is
// not aborted beyond what ctx itself enforces, its result is simply
// ignored once the state has moved on.
func (p *Poller) Run(ctx context.Context) (State, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for p.state == StatePolling {
		select {
		case <-ctx.Done():
			return p.state, ctx.Err()
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
	if p.state == StateFailed {
		return p.state, errors.New(p.message)
	}
	return p.state, nil
}

func (p *Poller) fail(msg string) {
	p.state = StateFailed
	p.message = msg
}

// setProgress keeps the progress indicator monotonically non-decreasing
// even if a delayed poll observes an earlier status.
func (p *Poller) setProgress(v int) {
	if v > p.progress {
		p.progress = v
		if p.onProgress != nil {
			p.onProgress(v)
		}
	}
}

func (p *Poller) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("video", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/upload", pr)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed: %s", decodeError(resp))
	}
	var decoded struct {
		TranscriptionID string `json:"transcriptionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if decoded.TranscriptionID == "" {
		return "", errors.New("upload response missing transcription id")
	}
	return decoded.TranscriptionID, nil
}

func (p *Poller) fetchStatus(ctx context.Context) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/status/"+p.jobID, nil)
	if err != nil {
		return "", "", fmt.Errorf("build status request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status check failed: %s", decodeError(resp))
	}
	var decoded struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", "", fmt.Errorf("decode status response: %w", err)
	}
	return decoded.Status, decoded.Error, nil
}

func (p *Poller) fetchTranscript(ctx context.Context) ([]transcript.Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/transcript/"+p.jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build transcript request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript retrieval failed: %s", decodeError(resp))
	}
	var decoded struct {
		Transcript []transcript.Segment `json:"transcript"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode transcript response: %w", err)
	}
	return decoded.Transcript, nil
}

func decodeError(resp *http.Response) string {
	var decoded struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err == nil && decoded.Error != "" {
		return decoded.Error
	}
	return resp.Status
}
