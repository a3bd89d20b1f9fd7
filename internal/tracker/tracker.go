// Package tracker filters station arrival boards and reconciles
// tracked trains against live line positions.
package tracker

import (
	"sort"
	"strings"

	"github.com/jusunglee/subway-go/internal/models"
)

// API is the slice of the vendor client the tracker needs
type API interface {
	RealtimeArrivals(stationName string) (models.ArrivalResult, error)
	RealtimePositions(lineName string) (models.PositionResult, error)
}

// Tracker answers "which trains are heading to this station" queries
type Tracker struct {
	api API
}

// New creates a tracker over a vendor API client
func New(api API) *Tracker {
	return &Tracker{api: api}
}

// TrackStation fetches arrivals for a station, optionally filters by
// line code and direction substring, and sorts by time to arrival.
// Fetch failures propagate unchanged; an empty match is a valid OK
// result, not an error.
func (t *Tracker) TrackStation(stationName, lineID, direction string) (models.ArrivalResult, error) {
	result, err := t.api.RealtimeArrivals(stationName)
	if err != nil {
		return models.ArrivalResult{}, err
	}
	if !result.OK {
		return result, nil
	}

	trains := result.Trains
	if lineID != "" {
		trains = filterTrains(trains, func(a models.Arrival) bool {
			return a.SubwayID == lineID
		})
	}
	if direction != "" {
		// substring match on the raw destination text, case-sensitive
		trains = filterTrains(trains, func(a models.Arrival) bool {
			return strings.Contains(a.TrainLineName, direction)
		})
	}

	// stable: the vendor's ordering breaks ties
	sort.SliceStable(trains, func(i, j int) bool {
		return trains[i].ArrivalTime < trains[j].ArrivalTime
	})

	return models.ArrivalResult{
		OK:          true,
		Count:       len(trains),
		StationName: stationName,
		Trains:      trains,
	}, nil
}

func filterTrains(trains []models.Arrival, keep func(models.Arrival) bool) []models.Arrival {
	out := make([]models.Arrival, 0, len(trains))
	for _, train := range trains {
		if keep(train) {
			out = append(out, train)
		}
	}
	return out
}

// MatchPositions joins tracked arrivals against the line's live
// positions by train number. The lookup is deliberately skipped, with
// the reason recorded, when nothing is tracked or the line code has no
// position feed. Position trains we aren't tracking are dropped.
func (t *Tracker) MatchPositions(tracked []models.Arrival, lineID string) (models.ReconcileResult, error) {
	if len(tracked) == 0 {
		return models.ReconcileResult{SkippedReason: "no tracked trains"}, nil
	}

	lineName := models.LineName(lineID)
	if lineName == "" {
		return models.ReconcileResult{SkippedReason: "unknown line code"}, nil
	}

	positions, err := t.api.RealtimePositions(lineName)
	if err != nil {
		return models.ReconcileResult{}, err
	}
	if !positions.OK {
		return models.ReconcileResult{SkippedReason: "position lookup failed: " + positions.ErrorMessage}, nil
	}
	if positions.Count == 0 {
		return models.ReconcileResult{SkippedReason: "no position data"}, nil
	}

	trackedNos := make(map[string]bool, len(tracked))
	for _, train := range tracked {
		trackedNos[train.TrainNo] = true
	}

	matches := make([]models.MatchedPosition, 0, len(tracked))
	for _, pos := range positions.Trains {
		if !trackedNos[pos.TrainNo] {
			continue
		}
		matches = append(matches, models.MatchedPosition{
			TrainNo:        pos.TrainNo,
			CurrentStation: pos.CurrentStation,
			NextStation:    pos.NextStation,
		})
	}

	return models.ReconcileResult{Matches: matches}, nil
}
