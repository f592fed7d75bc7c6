// Package registry holds the in-memory store of transcription jobs. It is
// the sole owner of job state: every mutation goes through its methods and
// callers only ever see copies of the stored records.
package registry

import (
	"fmt"
	"sync"
	"time"

	"diarist/internal/domain"
)

// Registry is a concurrency-safe job store keyed by provider-assigned id.
// Job state is process-local and volatile: nothing survives a restart.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
	now  func() time.Time
}

func New() *Registry {
	return &Registry{
		jobs: make(map[string]*domain.Job),
		now:  time.Now,
	}
}

// Create inserts a new job in queued state. The id comes from the provider,
// so a collision indicates a caller bug rather than an expected condition.
func (r *Registry) Create(id, storagePath string) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; exists {
		return domain.Job{}, fmt.Errorf("create job %s: %w", id, domain.ErrDuplicateID)
	}
	job := &domain.Job{
		ID:          id,
		Status:      domain.StatusQueued,
		StoragePath: storagePath,
		CreatedAt:   r.now(),
	}
	r.jobs[id] = job
	return *job, nil
}

// Get returns a snapshot of the job with the given id.
func (r *Registry) Get(id string) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return *job, nil
}

// SetStatus writes a provider-reported status into the record. Backward
// writes and writes out of a terminal state fail with ErrInvalidTransition;
// re-asserting the current status is a no-op. The error message is only
// retained when the new status is error.
func (r *Registry) SetStatus(id string, status domain.Status, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if !domain.CanTransition(job.Status, status) {
		return fmt.Errorf("job %s: %s -> %s: %w", id, job.Status, status, domain.ErrInvalidTransition)
	}
	job.Status = status
	if status == domain.StatusError {
		job.Error = errMsg
	}
	return nil
}

// Len reports the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// PurgeExpired removes every job with now - CreatedAt > ttl, regardless of
// status, and invokes onPurge with a snapshot of each removed record. The
// callback runs outside the registry lock so file deletion never blocks
// concurrent Create/Get/SetStatus calls. Records are removed before onPurge
// fires, so a purged id is already observable as not-found while its file
// is being reclaimed.
func (r *Registry) PurgeExpired(ttl time.Duration, now time.Time, onPurge func(domain.Job)) int {
	r.mu.Lock()
	var expired []domain.Job
	for id, job := range r.jobs {
		if now.Sub(job.CreatedAt) > ttl {
			expired = append(expired, *job)
			delete(r.jobs, id)
		}
	}
	r.mu.Unlock()

	if onPurge != nil {
		for _, job := range expired {
			onPurge(job)
		}
	}
	return len(expired)
}
