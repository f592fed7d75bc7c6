// Package service orchestrates the transcription job lifecycle: handing an
// uploaded file to the provider, registering the resulting job, and
// reconciling provider-side state into the local registry on demand.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"diarist/internal/domain"
	"diarist/internal/infra"
	"diarist/internal/metrics"
	"diarist/internal/providers/assemblyai"
	"diarist/internal/registry"
	"diarist/internal/sweeper"
	"diarist/internal/transcript"
)

// Provider is the transcription provider boundary consumed by the service.
// *assemblyai.Client satisfies it; tests substitute fakes.
type Provider interface {
	Upload(ctx context.Context, media io.Reader) (string, error)
	Submit(ctx context.Context, audioURL string) (string, error)
	Poll(ctx context.Context, id string) (*assemblyai.Transcript, error)
}

// Service composes the registry, the provider, and the retention sweeper.
type Service struct {
	provider Provider
	registry *registry.Registry
	sweeper  *sweeper.Sweeper
	metrics  *metrics.Metrics
	logger   infra.Logger
}

func New(provider Provider, reg *registry.Registry, sw *sweeper.Sweeper, m *metrics.Metrics, logger infra.Logger) *Service {
	return &Service{
		provider: provider,
		registry: reg,
		sweeper:  sw,
		metrics:  m,
		logger:   logger,
	}
}

// Submit hands the media file at storagePath to the provider and registers
// the resulting job. On provider failure no job is registered and the
// caller remains responsible for the temp file it supplied. On success a
// retention sweep is kicked off without delaying the response.
func (s *Service) Submit(ctx context.Context, storagePath string) (string, error) {
	f, err := os.Open(storagePath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	audioURL, err := s.timedProviderCall("upload", func() (string, error) {
		return s.provider.Upload(ctx, f)
	})
	if err != nil {
		return "", err
	}

	id, err := s.timedProviderCall("submit", func() (string, error) {
		return s.provider.Submit(ctx, audioURL)
	})
	if err != nil {
		return "", err
	}

	if _, err := s.registry.Create(id, storagePath); err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.JobsCreated.Inc()
		s.metrics.TrackedJobs.Set(float64(s.registry.Len()))
	}
	s.logger.Info().
		Str("job_id", id).
		Str("path", storagePath).
		Msg("transcription job registered")

	if s.sweeper != nil {
		go s.sweeper.Sweep()
	}
	return id, nil
}

// Status reconciles provider-side state into the registry and returns what
// the registry now reports. The sync is strictly one-way: the provider owns
// the status value, the registry owns what is reported. A provider report
// that would move the status backward is treated as a glitch and ignored.
// Once the record is terminal it is settled and answered locally, so a
// later provider outage cannot fail a status check for a finished job.
func (s *Service) Status(ctx context.Context, id string) (domain.Status, string, error) {
	job, err := s.registry.Get(id)
	if err != nil {
		return "", "", err
	}
	if job.Status.Terminal() {
		return job.Status, job.Error, nil
	}

	remote, err := s.poll(ctx, id)
	if err != nil {
		return "", "", err
	}

	status, ok := domain.ParseStatus(remote.Status)
	if !ok {
		return "", "", fmt.Errorf("unexpected provider status %q: %w", remote.Status, domain.ErrProviderUnavailable)
	}
	s.reconcile(id, status, remote.Error)

	job, err = s.registry.Get(id)
	if err != nil {
		return "", "", err
	}
	return job.Status, job.Error, nil
}

// Transcript fetches the completed transcript for a job and formats it into
// speaker segments. Results are produced fresh on every call, never cached.
func (s *Service) Transcript(ctx context.Context, id string) ([]transcript.Segment, error) {
	if _, err := s.registry.Get(id); err != nil {
		return nil, err
	}

	remote, err := s.poll(ctx, id)
	if err != nil {
		return nil, err
	}

	status, ok := domain.ParseStatus(remote.Status)
	if !ok {
		return nil, fmt.Errorf("unexpected provider status %q: %w", remote.Status, domain.ErrProviderUnavailable)
	}
	s.reconcile(id, status, remote.Error)

	switch status {
	case domain.StatusError:
		return nil, fmt.Errorf("%s: %w", remote.Error, domain.ErrTranscriptionFailed)
	case domain.StatusCompleted:
		utterances := make([]transcript.Utterance, 0, len(remote.Utterances))
		for _, u := range remote.Utterances {
			utterances = append(utterances, transcript.Utterance{
				Speaker:     u.Speaker,
				Text:        u.Text,
				StartMillis: u.Start,
				EndMillis:   u.End,
			})
		}
		return transcript.Format(utterances), nil
	default:
		return nil, domain.ErrNotReady
	}
}

// JobCount reports how many jobs the registry currently tracks.
func (s *Service) JobCount() int {
	return s.registry.Len()
}

// reconcile writes a provider-reported status into the registry. Backward
// transitions are rejected by the registry and logged here; the registry
// record keeps its further-along state.
func (s *Service) reconcile(id string, status domain.Status, errMsg string) {
	prev, err := s.registry.Get(id)
	if err != nil {
		return
	}
	if err := s.registry.SetStatus(id, status, errMsg); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Debug().
				Str("job_id", id).
				Str("local", string(prev.Status)).
				Str("reported", string(status)).
				Msg("ignoring backward provider status report")
		}
		return
	}
	if s.metrics != nil && status == domain.StatusError && prev.Status != domain.StatusError {
		s.metrics.JobsFailed.Inc()
	}
}

func (s *Service) poll(ctx context.Context, id string) (*assemblyai.Transcript, error) {
	start := time.Now()
	remote, err := s.provider.Poll(ctx, id)
	if s.metrics != nil {
		s.metrics.RecordProviderCall("poll", err == nil, time.Since(start).Seconds())
	}
	return remote, err
}

func (s *Service) timedProviderCall(operation string, call func() (string, error)) (string, error) {
	start := time.Now()
	out, err := call()
	if s.metrics != nil {
		s.metrics.RecordProviderCall(operation, err == nil, time.Since(start).Seconds())
	}
	return out, err
}
