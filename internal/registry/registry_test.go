package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"diarist/internal/domain"
)

func TestCreateAndGet(t *testing.T) {
	r := New()

	job, err := r.Create("tr-1", "/tmp/uploads/a.mp4")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.Status != domain.StatusQueued {
		t.Fatalf("status = %s, want queued", job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := r.Get("tr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StoragePath != "/tmp/uploads/a.mp4" {
		t.Fatalf("storage path = %q", got.StoragePath)
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	r := New()
	if _, err := r.Create("tr-1", "a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.Create("tr-1", "b"); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("duplicate create error = %v, want ErrDuplicateID", err)
	}
}

func TestGetUnknownIDFailsWithNotFound(t *testing.T) {
	r := New()
	if _, err := r.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get error = %v, want ErrNotFound", err)
	}
	// A failed lookup must never silently create.
	if r.Len() != 0 {
		t.Fatalf("registry len = %d, want 0", r.Len())
	}
}

func TestSetStatusForwardPath(t *testing.T) {
	r := New()
	if _, err := r.Create("tr-1", "a"); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, status := range []domain.Status{
		domain.StatusProcessing,
		domain.StatusCompleted,
	} {
		if err := r.SetStatus("tr-1", status, ""); err != nil {
			t.Fatalf("set status %s: %v", status, err)
		}
	}

	job, err := r.Get("tr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
}

func TestSetStatusRejectsBackwardTransition(t *testing.T) {
	r := New()
	if _, err := r.Create("tr-1", "a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.SetStatus("tr-1", domain.StatusProcessing, ""); err != nil {
		t.Fatalf("set processing: %v", err)
	}

	if err := r.SetStatus("tr-1", domain.StatusQueued, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("backward write error = %v, want ErrInvalidTransition", err)
	}

	job, _ := r.Get("tr-1")
	if job.Status != domain.StatusProcessing {
		t.Fatalf("status after rejected write = %s, want processing", job.Status)
	}
}

func TestSetStatusRejectsWriteAfterTerminal(t *testing.T) {
	r := New()
	if _, err := r.Create("tr-1", "a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.SetStatus("tr-1", domain.StatusError, "bad audio"); err != nil {
		t.Fatalf("set error: %v", err)
	}

	if err := r.SetStatus("tr-1", domain.StatusCompleted, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("write after terminal = %v, want ErrInvalidTransition", err)
	}

	job, _ := r.Get("tr-1")
	if job.Error != "bad audio" {
		t.Fatalf("error message = %q, want %q", job.Error, "bad audio")
	}
}

func TestSetStatusSameStatusIsNoOp(t *testing.T) {
	r := New()
	if _, err := r.Create("tr-1", "a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.SetStatus("tr-1", domain.StatusQueued, ""); err != nil {
		t.Fatalf("re-asserting current status: %v", err)
	}
}

func TestPurgeExpiredRemovesOnlyExpiredJobs(t *testing.T) {
	r := New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }
	if _, err := r.Create("old", "/tmp/old.mp4"); err != nil {
		t.Fatalf("create old: %v", err)
	}
	r.now = func() time.Time { return base.Add(30 * time.Minute) }
	if _, err := r.Create("fresh", "/tmp/fresh.mp4"); err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	var purged []string
	count := r.PurgeExpired(time.Hour, base.Add(61*time.Minute), func(job domain.Job) {
		purged = append(purged, job.ID)
	})

	if count != 1 {
		t.Fatalf("purged count = %d, want 1", count)
	}
	if len(purged) != 1 || purged[0] != "old" {
		t.Fatalf("purged ids = %v, want [old]", purged)
	}
	if _, err := r.Get("old"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get purged = %v, want ErrNotFound", err)
	}
	if _, err := r.Get("fresh"); err != nil {
		t.Fatalf("fresh job was purged: %v", err)
	}
}

func TestPurgeExpiredIgnoresStatus(t *testing.T) {
	r := New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }
	if _, err := r.Create("tr-1", "a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.SetStatus("tr-1", domain.StatusProcessing, ""); err != nil {
		t.Fatalf("set status: %v", err)
	}

	// Even in-flight jobs fall to the retention ceiling.
	if count := r.PurgeExpired(time.Hour, base.Add(2*time.Hour), nil); count != 1 {
		t.Fatalf("purged count = %d, want 1", count)
	}
}

func TestConcurrentCreatesDoNotCollide(t *testing.T) {
	r := New()
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("tr-%d", i)
			if _, err := r.Create(id, id+".mp4"); err != nil {
				t.Errorf("create %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != n {
		t.Fatalf("registry len = %d, want %d", r.Len(), n)
	}
	for i := 0; i < n; i++ {
		if _, err := r.Get(fmt.Sprintf("tr-%d", i)); err != nil {
			t.Fatalf("lost record tr-%d: %v", i, err)
		}
	}
}

func TestPurgeExpiredConcurrentWithWrites(t *testing.T) {
	r := New()
	base := time.Now()
	for i := 0; i < 32; i++ {
		if _, err := r.Create(fmt.Sprintf("tr-%d", i), "a"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 32; i++ {
			r.PurgeExpired(time.Hour, base.Add(2*time.Hour), func(domain.Job) {})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 32; i++ {
			_ = r.SetStatus(fmt.Sprintf("tr-%d", i), domain.StatusProcessing, "")
			_, _ = r.Get(fmt.Sprintf("tr-%d", i))
		}
	}()
	wg.Wait()

	if r.Len() != 0 {
		t.Fatalf("registry len = %d, want 0 after purge", r.Len())
	}
}
