package task

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jusunglee/subway-go/internal/history"
	"github.com/jusunglee/subway-go/internal/models"
	"github.com/jusunglee/subway-go/internal/store"
	"github.com/jusunglee/subway-go/internal/tracker"
)

// fakeAPI implements tracker.API with canned results
type fakeAPI struct {
	arrivals     models.ArrivalResult
	arrivalErr   error
	positions    models.PositionResult
	arrivalCalls int
}

func (f *fakeAPI) RealtimeArrivals(stationName string) (models.ArrivalResult, error) {
	f.arrivalCalls++
	if f.arrivalErr != nil {
		return models.ArrivalResult{}, f.arrivalErr
	}
	return f.arrivals, nil
}

func (f *fakeAPI) RealtimePositions(lineName string) (models.PositionResult, error) {
	return f.positions, nil
}

func newTestRunner(t *testing.T, api *fakeAPI, station, lineID string) (*Runner, *history.Store, *store.Store) {
	t.Helper()
	hist := history.NewStore(filepath.Join(t.TempDir(), "history.json"), 10)
	st := store.NewStore()
	runner, err := NewRunner(tracker.New(api), hist, st, station, lineID)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	return runner, hist, st
}

func sampleArrivals(n int) models.ArrivalResult {
	trains := make([]models.Arrival, n)
	for i := range trains {
		trains[i] = models.Arrival{
			TrainNo:     "22" + string(rune('0'+i)),
			SubwayID:    "1002",
			ArrivalTime: (i + 1) * 30,
		}
	}
	return models.ArrivalResult{OK: true, Count: n, Trains: trains}
}

func TestNewRunnerRequiresStation(t *testing.T) {
	if _, err := NewRunner(nil, nil, nil, "", ""); !errors.Is(err, ErrNoStation) {
		t.Errorf("Expected ErrNoStation, got %v", err)
	}
}

func TestRunSuccess(t *testing.T) {
	api := &fakeAPI{
		arrivals: sampleArrivals(2),
		positions: models.PositionResult{OK: true, Count: 1, Trains: []models.Position{
			{TrainNo: "220", CurrentStation: "성수", NextStation: "건대입구"},
		}},
	}
	runner, hist, st := newTestRunner(t, api, "신도림", "1002")

	result := runner.Run()
	if result.Status != StatusSuccess {
		t.Fatalf("Expected success, got %+v", result)
	}
	if result.TrainCount != 2 || len(result.Trains) != 2 {
		t.Errorf("Expected 2 tracked trains, got %+v", result)
	}
	if result.TaskID == "" {
		t.Error("Expected a task ID")
	}
	if result.Retryable {
		t.Error("Success must not be retryable")
	}

	entries, _ := hist.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(entries))
	}

	snapshot, updated := st.Snapshot()
	if snapshot.StationName != "신도림" || len(snapshot.Trains) != 2 {
		t.Errorf("Unexpected store snapshot: %+v", snapshot)
	}
	if len(snapshot.Matches) != 1 {
		t.Errorf("Expected 1 reconciled match, got %d", len(snapshot.Matches))
	}
	if updated.IsZero() {
		t.Error("Expected store update time to be set")
	}
}

func TestRunCapsTrackedTrains(t *testing.T) {
	api := &fakeAPI{arrivals: sampleArrivals(8)}
	runner, _, _ := newTestRunner(t, api, "신도림", "")

	result := runner.Run()
	if result.Status != StatusSuccess {
		t.Fatalf("Expected success, got %+v", result)
	}
	if result.TrainCount != maxTrackedTrains {
		t.Errorf("Expected tracking summary capped at %d, got %d", maxTrackedTrains, result.TrainCount)
	}
}

func TestRunFetchFailureIsFinal(t *testing.T) {
	api := &fakeAPI{arrivals: models.ArrivalResult{ErrorMessage: "API request failed: timeout"}}
	runner, hist, _ := newTestRunner(t, api, "신도림", "1002")

	result := runner.Run()
	if result.Status != StatusFailed || result.Stage != StageArrivalInfo {
		t.Fatalf("Expected arrival_info failure, got %+v", result)
	}
	if result.Retryable {
		t.Error("A vendor/transport failure is a business outcome, not retryable")
	}
	if result.Error != "API request failed: timeout" {
		t.Errorf("Unexpected error message: %q", result.Error)
	}

	entries, _ := hist.Entries()
	if len(entries) != 0 {
		t.Error("Failed cycles must not write history")
	}
}

func TestRunEmptyBoardIsFinal(t *testing.T) {
	api := &fakeAPI{arrivals: models.ArrivalResult{OK: true}}
	runner, _, _ := newTestRunner(t, api, "신도림", "1002")

	result := runner.Run()
	if result.Status != StatusFailed || result.Stage != StageArrivalInfo || result.Retryable {
		t.Errorf("Expected final arrival_info failure for an empty board, got %+v", result)
	}
}

func TestRunParsingFailureIsRetryable(t *testing.T) {
	api := &fakeAPI{arrivalErr: errors.New("response parsing failed: bad shape")}
	runner, _, _ := newTestRunner(t, api, "신도림", "1002")

	result := runner.Run()
	if result.Status != StatusFailed || !result.Retryable {
		t.Errorf("Expected retryable failure, got %+v", result)
	}
}

func TestRunPersistenceFailureIsRetryable(t *testing.T) {
	api := &fakeAPI{arrivals: sampleArrivals(1)}
	// a history path whose parent is a file, so the append must fail
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	hist := history.NewStore(filepath.Join(blocker, "sub", "history.json"), 10)
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner, err := NewRunner(tracker.New(api), hist, store.NewStore(), "신도림", "")
	if err != nil {
		t.Fatal(err)
	}

	result := runner.Run()
	if result.Status != StatusFailed || result.Stage != StagePersistence || !result.Retryable {
		t.Errorf("Expected retryable persistence failure, got %+v", result)
	}
}

func TestRunBestEffortReconciliation(t *testing.T) {
	// unknown line code: position lookup skipped, cycle still succeeds
	api := &fakeAPI{arrivals: sampleArrivals(1)}
	runner, _, st := newTestRunner(t, api, "신도림", "9999")

	result := runner.Run()
	if result.Status != StatusSuccess {
		t.Fatalf("Expected success despite skipped reconciliation, got %+v", result)
	}

	snapshot, _ := st.Snapshot()
	if len(snapshot.Matches) != 0 {
		t.Errorf("Expected no matches, got %d", len(snapshot.Matches))
	}
}

func TestRunArrivalInfo(t *testing.T) {
	api := &fakeAPI{arrivals: sampleArrivals(3)}
	runner, hist, _ := newTestRunner(t, api, "신도림", "")

	result := runner.RunArrivalInfo()
	if result.Status != StatusSuccess || result.TrainCount != 3 {
		t.Fatalf("Expected success with 3 trains, got %+v", result)
	}

	entries, _ := hist.Entries()
	if len(entries) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(entries))
	}
}

func TestSequentialCyclesRespectCapacity(t *testing.T) {
	api := &fakeAPI{arrivals: sampleArrivals(1)}
	hist := history.NewStore(filepath.Join(t.TempDir(), "history.json"), 2)
	runner, err := NewRunner(tracker.New(api), hist, store.NewStore(), "신도림", "")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		result := runner.Run()
		if result.Status != StatusSuccess {
			t.Fatalf("Cycle %d failed: %+v", i, result)
		}
		time.Sleep(10 * time.Millisecond)
	}

	entries, _ := hist.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected exactly 2 entries, got %d", len(entries))
	}
	// chronological, oldest first: the first cycle evicted
	if entries[0].Timestamp > entries[1].Timestamp {
		t.Error("Expected entries in chronological order")
	}
}
