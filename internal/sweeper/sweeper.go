// Package sweeper reclaims expired job records and their backing temp
// files. Reclamation is best-effort housekeeping: it never propagates
// failures to its callers and is safe to trigger repeatedly and
// concurrently from request handlers or a background loop.
package sweeper

import (
	"context"
	"time"

	"diarist/internal/domain"
	"diarist/internal/infra"
	"diarist/internal/metrics"
	"diarist/internal/registry"
	"diarist/internal/storage"
)

// Sweeper purges jobs older than the retention TTL, regardless of status.
// The TTL is a hard ceiling on resource retention, not a statement about
// transcription completion.
type Sweeper struct {
	registry *registry.Registry
	files    *storage.FileStore
	metrics  *metrics.Metrics
	logger   infra.Logger
	ttl      time.Duration
	now      func() time.Time
}

func New(reg *registry.Registry, files *storage.FileStore, m *metrics.Metrics, logger infra.Logger, ttl time.Duration) *Sweeper {
	return &Sweeper{
		registry: reg,
		files:    files,
		metrics:  m,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Sweep runs one purge pass. Record removal and file deletion share a
// lifetime: the record goes first, then the file, and a file that is
// already gone counts as deleted. Deletion failures are logged and the
// record stays purged so cleanup never blocks forward progress.
func (s *Sweeper) Sweep() {
	purged := s.registry.PurgeExpired(s.ttl, s.now(), func(job domain.Job) {
		if err := s.files.Remove(job.StoragePath); err != nil {
			s.logger.Warn().
				Err(err).
				Str("job_id", job.ID).
				Str("path", job.StoragePath).
				Msg("sweeper: failed to delete expired upload")
		}
	})
	if purged > 0 {
		if s.metrics != nil {
			s.metrics.JobsPurged.Add(float64(purged))
		}
		s.logger.Info().Int("purged", purged).Msg("sweeper: reclaimed expired jobs")
	}
	if s.metrics != nil {
		s.metrics.TrackedJobs.Set(float64(s.registry.Len()))
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", interval).
		Dur("ttl", s.ttl).
		Msg("sweeper: background loop started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper: background loop stopping")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
