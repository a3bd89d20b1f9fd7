// Package task runs the periodic tracking cycle and hosts it on a
// fixed cadence with a bounded retry policy for systemic faults.
package task

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jusunglee/subway-go/internal/history"
	"github.com/jusunglee/subway-go/internal/models"
	"github.com/jusunglee/subway-go/internal/store"
	"github.com/jusunglee/subway-go/internal/tracker"
)

// Result statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Stages a cycle can fail in
const (
	StageArrivalInfo = "arrival_info"
	StagePersistence = "persistence"
)

// the tracking summary keeps only the closest trains
const maxTrackedTrains = 5

// ErrNoStation reports a missing station name. Retrying cannot fix
// missing configuration, so this fails construction, not a cycle.
var ErrNoStation = errors.New("station name not configured")

// Result is the structured outcome of one cycle. Retryable marks
// systemic faults (parsing, persistence) the host should re-run with
// backoff; business failures like an empty board are final.
type Result struct {
	Status      string                `json:"status"`
	Stage       string                `json:"stage,omitempty"`
	Error       string                `json:"error,omitempty"`
	Timestamp   string                `json:"timestamp"`
	StationName string                `json:"station_name,omitempty"`
	TrainCount  int                   `json:"train_count,omitempty"`
	Trains      []models.TrackedTrain `json:"trains,omitempty"`
	TaskID      string                `json:"task_id"`
	Retryable   bool                  `json:"-"`
}

// Runner executes tracking cycles against fixed station/line targets
type Runner struct {
	tracker     *tracker.Tracker
	history     *history.Store
	store       *store.Store
	stationName string
	lineID      string
}

// NewRunner wires a runner. The station name must already be resolved;
// an empty one is a configuration error.
func NewRunner(tr *tracker.Tracker, hist *history.Store, st *store.Store, stationName, lineID string) (*Runner, error) {
	if stationName == "" {
		return nil, ErrNoStation
	}
	return &Runner{
		tracker:     tr,
		history:     hist,
		store:       st,
		stationName: stationName,
		lineID:      lineID,
	}, nil
}

func (r *Runner) failed(taskID, stage, errMsg string, retryable bool) Result {
	return Result{
		Status:    StatusFailed,
		Stage:     stage,
		Error:     errMsg,
		Timestamp: time.Now().Format(time.RFC3339),
		TaskID:    taskID,
		Retryable: retryable,
	}
}

// Run executes one full tracking cycle: fetch and filter arrivals,
// reconcile against live positions, persist the snapshot. An erroring
// or empty arrival board is a final business outcome, not a fault.
func (r *Runner) Run() Result {
	taskID := uuid.NewString()

	arrivals, err := r.tracker.TrackStation(r.stationName, r.lineID, "")
	if err != nil {
		return r.failed(taskID, StageArrivalInfo, err.Error(), true)
	}
	if !arrivals.OK {
		return r.failed(taskID, StageArrivalInfo, arrivals.ErrorMessage, false)
	}
	if arrivals.Count == 0 {
		return r.failed(taskID, StageArrivalInfo, "no arrival data found", false)
	}

	tracked := arrivals.Trains
	if len(tracked) > maxTrackedTrains {
		tracked = tracked[:maxTrackedTrains]
	}
	summaries := make([]models.TrackedTrain, len(tracked))
	for i, train := range tracked {
		summaries[i] = train.Summary()
	}

	// best-effort: a failed or skipped position lookup never fails the
	// cycle, the reason is recorded on the snapshot instead
	recon, err := r.tracker.MatchPositions(tracked, r.lineID)
	if err != nil {
		log.Printf("Position lookup failed: %v", err)
		recon = models.ReconcileResult{SkippedReason: "position lookup failed: " + err.Error()}
	}

	snapshot := models.TrackingSnapshot{
		StationName: r.stationName,
		LineID:      r.lineID,
		Trains:      summaries,
		Matches:     recon.Matches,
	}

	if err := r.history.Append(history.NewEntry(snapshot)); err != nil {
		return r.failed(taskID, StagePersistence, err.Error(), true)
	}
	r.store.UpdateSnapshot(snapshot, arrivals.Trains)

	return Result{
		Status:      StatusSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
		StationName: r.stationName,
		TrainCount:  len(summaries),
		Trains:      summaries,
		TaskID:      taskID,
	}
}

// RunArrivalInfo executes the simpler arrival-only cycle: fetch the
// station board and persist it whole, no reconciliation.
func (r *Runner) RunArrivalInfo() Result {
	taskID := uuid.NewString()

	arrivals, err := r.tracker.TrackStation(r.stationName, r.lineID, "")
	if err != nil {
		return r.failed(taskID, StageArrivalInfo, err.Error(), true)
	}
	if !arrivals.OK {
		return r.failed(taskID, StageArrivalInfo, arrivals.ErrorMessage, false)
	}

	if err := r.history.Append(history.NewEntry(arrivals.Trains)); err != nil {
		return r.failed(taskID, StagePersistence, err.Error(), true)
	}

	summaries := make([]models.TrackedTrain, len(arrivals.Trains))
	for i, train := range arrivals.Trains {
		summaries[i] = train.Summary()
	}

	return Result{
		Status:      StatusSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
		StationName: r.stationName,
		TrainCount:  arrivals.Count,
		Trains:      summaries,
		TaskID:      taskID,
	}
}
