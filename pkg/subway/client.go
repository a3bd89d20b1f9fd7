package subway

import (
	"time"

	"github.com/jusunglee/subway-go/internal/history"
	"github.com/jusunglee/subway-go/internal/models"
)

// Client defines the interface for Seoul subway real-time data.
// Live queries hit the vendor API; Snapshot and History read what the
// background cycle has already collected.
type Client interface {
	TrackStation(stationName, lineID, direction string) (models.ArrivalResult, error)
	Positions(lineID string) (models.PositionResult, error)

	Lines() map[string]string

	Snapshot() (models.TrackingSnapshot, time.Time)
	History(limit int) ([]history.Entry, error)

	LastUpdate() time.Time
}

// Config holds configuration for the subway client.
// APIKey is required for the vendor's real-time endpoints.
type Config struct {
	APIKey  string
	BaseURL string

	StationName string
	LineID      string

	PollInterval time.Duration
	RetryWait    time.Duration
	MaxRetries   int

	HistoryFile     string
	HistoryCapacity int
}

// DefaultConfig returns default configuration
// 30-second cadence matches the vendor's update rate
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://swopenapi.seoul.go.kr/api/subway",
		StationName:     "신도림",
		PollInterval:    30 * time.Second,
		RetryWait:       60 * time.Second,
		MaxRetries:      3,
		HistoryFile:     "logs/subway_history.json",
		HistoryCapacity: 100,
	}
}
