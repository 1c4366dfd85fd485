package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/seghcder/crewkan/internal/errors"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "record.yaml")
}

func TestAcquireCreatesMarker(t *testing.T) {
	path := testPath(t)
	l := New(path)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	content, err := os.ReadFile(path + Suffix)
	if err != nil {
		t.Fatalf("lock marker missing: %v", err)
	}
	if _, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(content))); err != nil {
		t.Errorf("marker content %q is not a timestamp: %v", content, err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(path + Suffix); !os.IsNotExist(err) {
		t.Errorf("lock marker still present after Release (err = %v)", err)
	}
}

func TestReleaseMissingMarkerIsNotAnError(t *testing.T) {
	l := New(testPath(t))
	if err := l.Release(); err != nil {
		t.Fatalf("Release() without Acquire error = %v", err)
	}
}

func TestAcquireTimeout(t *testing.T) {
	path := testPath(t)
	holder := New(path)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer holder.Release()

	waiter := New(path, WithTimeout(150*time.Millisecond), WithRetryInterval(20*time.Millisecond))
	err := waiter.Acquire(context.Background())
	if !errors.Is(err, errors.ErrLockTimeout) {
		t.Fatalf("Acquire() error = %v, want ErrLockTimeout", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("lock timeout should be retryable")
	}
}

func TestAcquireContextCancellation(t *testing.T) {
	path := testPath(t)
	holder := New(path)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer holder.Release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		w := New(path, WithTimeout(10*time.Second), WithRetryInterval(20*time.Millisecond))
		done <- w.Acquire(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Acquire() error = nil after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire() did not return after context cancellation")
	}
}

func TestStaleLockReclaimed(t *testing.T) {
	path := testPath(t)
	marker := path + Suffix
	if err := os.WriteFile(marker, []byte(time.Now().Format(time.RFC3339Nano)), 0o644); err != nil {
		t.Fatal(err)
	}
	// Backdate the marker past the staleness threshold. No Release is ever
	// called on it.
	old := time.Now().Add(-10 * time.Minute)
	if err := os.Chtimes(marker, old, old); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var reclaimedPath string
	var reclaimedAge time.Duration
	l := New(path,
		WithTimeout(time.Second),
		WithStaleAfter(5*time.Minute),
		WithStaleReclaimHandler(func(p string, age time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			reclaimedPath, reclaimedAge = p, age
		}))

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v, want stale lock reclaimed", err)
	}
	defer l.Release()

	mu.Lock()
	defer mu.Unlock()
	if reclaimedPath != path {
		t.Errorf("reclaim handler path = %q, want %q", reclaimedPath, path)
	}
	if reclaimedAge < 5*time.Minute {
		t.Errorf("reclaim handler age = %v, want >= 5m", reclaimedAge)
	}
}

func TestFreshLockNotReclaimed(t *testing.T) {
	path := testPath(t)
	holder := New(path)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer holder.Release()

	w := New(path,
		WithTimeout(200*time.Millisecond),
		WithRetryInterval(20*time.Millisecond),
		WithStaleAfter(time.Hour))
	if err := w.Acquire(context.Background()); !errors.Is(err, errors.ErrLockTimeout) {
		t.Fatalf("Acquire() error = %v, want timeout against fresh lock", err)
	}
}

func TestWithLockReleasesOnError(t *testing.T) {
	path := testPath(t)
	wantErr := fmt.Errorf("critical section failed")

	err := WithLock(context.Background(), path, func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithLock() error = %v, want %v", err, wantErr)
	}
	if _, err := os.Stat(path + Suffix); !os.IsNotExist(err) {
		t.Error("lock marker still present after failing critical section")
	}
}

func TestMutualExclusion(t *testing.T) {
	const workers = 8
	const rounds = 25

	dir := t.TempDir()
	counter := filepath.Join(dir, "counter")
	if err := os.WriteFile(counter, []byte("0"), 0o644); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				err := WithLock(context.Background(), counter, func() error {
					raw, err := os.ReadFile(counter)
					if err != nil {
						return err
					}
					n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
					if err != nil {
						return err
					}
					return os.WriteFile(counter, []byte(strconv.Itoa(n+1)), 0o644)
				}, WithTimeout(30*time.Second), WithRetryInterval(time.Millisecond))
				if err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("worker error: %v", err)
	}

	raw, err := os.ReadFile(counter)
	if err != nil {
		t.Fatal(err)
	}
	got, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if got != workers*rounds {
		t.Fatalf("counter = %d, want %d (lost updates)", got, workers*rounds)
	}
}
