package subway

import (
	"fmt"
	"time"

	"github.com/jusunglee/subway-go/internal/history"
	"github.com/jusunglee/subway-go/internal/models"
	"github.com/jusunglee/subway-go/internal/seoulapi"
	"github.com/jusunglee/subway-go/internal/store"
	"github.com/jusunglee/subway-go/internal/task"
	"github.com/jusunglee/subway-go/internal/tracker"
)

// LocalClient implements the Client interface for in-process usage.
// Owns the background scheduler, the bounded history log and the
// in-memory snapshot store.
type LocalClient struct {
	api       *seoulapi.Client
	tracker   *tracker.Tracker
	store     *store.Store
	history   *history.Store
	scheduler *task.Scheduler
}

// NewLocal creates a local subway client and starts the background
// tracking cycle. Fails fast when the station name is unresolved;
// retrying cannot fix missing configuration.
func NewLocal(config Config) (*LocalClient, error) {
	opts := []seoulapi.Option{}
	if config.BaseURL != "" {
		opts = append(opts, seoulapi.WithBaseURL(config.BaseURL))
	}
	api := seoulapi.NewClient(config.APIKey, opts...)

	tr := tracker.New(api)
	st := store.NewStore()
	hist := history.NewStore(config.HistoryFile, config.HistoryCapacity)

	runner, err := task.NewRunner(tr, hist, st, config.StationName, config.LineID)
	if err != nil {
		return nil, fmt.Errorf("configuring runner: %w", err)
	}

	scheduler := task.NewScheduler(runner, config.PollInterval, config.RetryWait, config.MaxRetries)
	scheduler.Start()

	return &LocalClient{
		api:       api,
		tracker:   tr,
		store:     st,
		history:   hist,
		scheduler: scheduler,
	}, nil
}

// Close stops the background cycle
// Must be called to stop goroutines and prevent leaks
func (c *LocalClient) Close() {
	c.scheduler.Stop()
}

// TrackStation queries the vendor live for trains heading to a station
func (c *LocalClient) TrackStation(stationName, lineID, direction string) (models.ArrivalResult, error) {
	return c.tracker.TrackStation(stationName, lineID, direction)
}

// Positions queries the vendor live for train positions on a line,
// addressed by its code. Unknown codes are a business failure.
func (c *LocalClient) Positions(lineID string) (models.PositionResult, error) {
	lineName := models.LineName(lineID)
	if lineName == "" {
		return models.PositionResult{ErrorMessage: fmt.Sprintf("unknown line code: %s", lineID)}, nil
	}
	return c.api.RealtimePositions(lineName)
}

// Lines returns the known line code to name table
func (c *LocalClient) Lines() map[string]string {
	return models.LineNames()
}

// Snapshot returns the latest background-cycle snapshot
func (c *LocalClient) Snapshot() (models.TrackingSnapshot, time.Time) {
	return c.store.Snapshot()
}

// History returns the most recent persisted cycle entries, oldest
// first. A non-positive limit returns everything.
func (c *LocalClient) History(limit int) ([]history.Entry, error) {
	entries, err := c.history.Entries()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// LastUpdate returns the time of the last successful cycle
func (c *LocalClient) LastUpdate() time.Time {
	return c.store.LastUpdate()
}
