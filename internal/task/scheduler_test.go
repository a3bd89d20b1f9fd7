package task

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jusunglee/subway-go/internal/history"
	"github.com/jusunglee/subway-go/internal/models"
	"github.com/jusunglee/subway-go/internal/store"
	"github.com/jusunglee/subway-go/internal/tracker"
)

func newTestScheduler(t *testing.T, api *fakeAPI, maxRetry int) *Scheduler {
	t.Helper()
	hist := history.NewStore(filepath.Join(t.TempDir(), "history.json"), 10)
	runner, err := NewRunner(tracker.New(api), hist, store.NewStore(), "신도림", "")
	if err != nil {
		t.Fatal(err)
	}
	return NewScheduler(runner, time.Hour, time.Millisecond, maxRetry)
}

func TestRunCycleRetriesSystemicFaults(t *testing.T) {
	api := &fakeAPI{arrivalErr: errors.New("response parsing failed: bad shape")}
	s := newTestScheduler(t, api, 3)

	result := s.RunCycle()
	if result.Status != StatusFailed {
		t.Fatalf("Expected terminal failure, got %+v", result)
	}
	// initial attempt plus the bounded retries
	if api.arrivalCalls != 4 {
		t.Errorf("Expected 4 attempts (1 + 3 retries), got %d", api.arrivalCalls)
	}
}

func TestRunCycleDoesNotRetryBusinessFailures(t *testing.T) {
	api := &fakeAPI{arrivals: models.ArrivalResult{ErrorMessage: "API request failed: timeout"}}
	s := newTestScheduler(t, api, 3)

	result := s.RunCycle()
	if result.Status != StatusFailed || result.Stage != StageArrivalInfo {
		t.Fatalf("Expected arrival_info failure, got %+v", result)
	}
	if api.arrivalCalls != 1 {
		t.Errorf("Business failures must not retry, got %d attempts", api.arrivalCalls)
	}
}

func TestRunCycleStopsRetryingOnSuccess(t *testing.T) {
	api := &fakeAPI{arrivals: sampleArrivals(1)}
	s := newTestScheduler(t, api, 3)

	result := s.RunCycle()
	if result.Status != StatusSuccess {
		t.Fatalf("Expected success, got %+v", result)
	}
	if api.arrivalCalls != 1 {
		t.Errorf("Expected a single attempt, got %d", api.arrivalCalls)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	api := &fakeAPI{arrivals: sampleArrivals(1)}
	hist := history.NewStore(filepath.Join(t.TempDir(), "history.json"), 10)
	runner, err := NewRunner(tracker.New(api), hist, store.NewStore(), "신도림", "")
	if err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(runner, 10*time.Millisecond, time.Millisecond, 0)
	s.Start()
	time.Sleep(35 * time.Millisecond)
	s.Stop()

	// initial cycle plus at least one tick
	if api.arrivalCalls < 2 {
		t.Errorf("Expected at least 2 cycles, got %d", api.arrivalCalls)
	}

	after := api.arrivalCalls
	time.Sleep(25 * time.Millisecond)
	if api.arrivalCalls != after {
		t.Error("Expected no cycles after Stop")
	}
}

func TestSchedulerDefaults(t *testing.T) {
	s := NewScheduler(nil, 0, 0, -1)
	if s.interval != DefaultInterval {
		t.Errorf("Expected default interval, got %v", s.interval)
	}
	if s.retryWait != DefaultRetryWait {
		t.Errorf("Expected default retry wait, got %v", s.retryWait)
	}
	if s.maxRetry != DefaultMaxRetry {
		t.Errorf("Expected default max retries, got %d", s.maxRetry)
	}
}
