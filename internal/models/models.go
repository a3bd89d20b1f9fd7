package models

import "strings"

// Arrival represents one train's upcoming arrival at a station
type Arrival struct {
	TrainNo          string `json:"train_no"`          // vendor train number (e.g. "2234")
	TrainLineName    string `json:"train_line_nm"`     // raw destination text (e.g. "성수행 - 외선순환")
	SubwayID         string `json:"subway_id"`         // vendor line code (e.g. "1002" = Line 2)
	SubwayName       string `json:"subway_nm"`         // line name
	StationName      string `json:"station_nm"`        // station name
	ArrivalTime      int    `json:"arrival_time"`      // seconds until arrival, never negative
	ArrivalMsg       string `json:"arrival_msg"`       // arrival message (e.g. "전역 출발")
	ArrivalCode      string `json:"arrival_code"`      // 0:approaching 1:arrived 2:departed 3:departed prev 4:approaching prev 5:arrived prev
	CurrentStation   string `json:"current_station"`   // current location (e.g. "성수")
	UpDown           string `json:"up_down"`           // 0:up 1:down
	Direction        string `json:"direction"`         // text before "-" in TrainLineName, or the whole thing
	IsExpress        bool   `json:"is_express"`
	IsLastTrain      bool   `json:"is_last_train"`
	Status           string `json:"status"`            // train status, same domain as ArrivalCode
	ReceivedTime     string `json:"received_time"`     // vendor-supplied timestamp, opaque
}

// Position represents one train's live position on a line
type Position struct {
	TrainNo        string `json:"train_no"`
	Status         string `json:"train_status"`
	CurrentStation string `json:"current_station"`
	NextStation    string `json:"next_station"`
	Direction      string `json:"direction"` // raw destination text
	UpDown         string `json:"up_down"`
	SubwayID       string `json:"subway_id"`
	ReceivedTime   string `json:"received_time"`
}

// ArrivalResult is the outcome of an arrival fetch or track query.
// OK is false for transport and vendor application errors; those are
// business outcomes, not Go errors.
type ArrivalResult struct {
	OK           bool      `json:"ok"`
	Count        int       `json:"count"`
	StationName  string    `json:"station_name,omitempty"`
	Trains       []Arrival `json:"trains,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// PositionResult is the outcome of a position fetch
type PositionResult struct {
	OK           bool       `json:"ok"`
	Count        int        `json:"count"`
	Trains       []Position `json:"trains,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// MatchedPosition pairs a tracked train with its live position
type MatchedPosition struct {
	TrainNo        string `json:"train_no"`
	CurrentStation string `json:"current_station"`
	NextStation    string `json:"next_station"`
}

// ReconcileResult is the outcome of matching tracked trains against
// live positions. SkippedReason is set when the lookup was deliberately
// skipped (unknown line, nothing tracked) rather than attempted.
type ReconcileResult struct {
	Matches       []MatchedPosition `json:"matches,omitempty"`
	SkippedReason string            `json:"skipped_reason,omitempty"`
}

// TrackedTrain is the slim per-train summary carried in cycle results
// and history entries
type TrackedTrain struct {
	TrainNo        string `json:"train_no"`
	Direction      string `json:"direction"`
	ArrivalTime    int    `json:"arrival_time"`
	ArrivalMsg     string `json:"arrival_msg"`
	CurrentStation string `json:"current_station"`
	Status         string `json:"status"`
	IsExpress      bool   `json:"is_express"`
	IsLastTrain    bool   `json:"is_last_train"`
}

// TrackingSnapshot is the normalized payload of one full tracking cycle
type TrackingSnapshot struct {
	StationName string            `json:"station_name"`
	LineID      string            `json:"line_num,omitempty"`
	Trains      []TrackedTrain    `json:"trains"`
	Matches     []MatchedPosition `json:"matches,omitempty"`
}

// Summary converts an arrival to its tracked-train form
func (a Arrival) Summary() TrackedTrain {
	return TrackedTrain{
		TrainNo:        a.TrainNo,
		Direction:      a.Direction,
		ArrivalTime:    a.ArrivalTime,
		ArrivalMsg:     a.ArrivalMsg,
		CurrentStation: a.CurrentStation,
		Status:         a.Status,
		IsExpress:      a.IsExpress,
		IsLastTrain:    a.IsLastTrain,
	}
}

// lineNames maps vendor line codes to the line names the position
// endpoint takes as a path segment. Codes outside this table have no
// position feed.
var lineNames = map[string]string{
	"1001": "1호선",
	"1002": "2호선",
	"1003": "3호선",
	"1004": "4호선",
	"1005": "5호선",
	"1006": "6호선",
	"1007": "7호선",
	"1008": "8호선",
	"1009": "9호선",
	"1063": "경의중앙선",
	"1065": "공항철도",
	"1067": "경춘선",
	"1075": "수인분당선",
	"1077": "신분당선",
}

// LineName returns the line name for a vendor line code, or "" if the
// code is unknown
func LineName(code string) string {
	return lineNames[code]
}

// LineNames returns a copy of the full code-to-name table
func LineNames() map[string]string {
	out := make(map[string]string, len(lineNames))
	for code, name := range lineNames {
		out[code] = name
	}
	return out
}

var statusTexts = map[string]string{
	"0": "진입",
	"1": "도착",
	"2": "출발",
	"3": "전역출발",
	"4": "전역진입",
	"5": "전역도착",
}

// StatusText returns the human-readable form of a train status code
func StatusText(code string) string {
	if text, ok := statusTexts[code]; ok {
		return text
	}
	return "알 수 없음(" + code + ")"
}

// DeriveDirection extracts the direction from raw destination text:
// the trimmed prefix before the first "-" when present, otherwise the
// text unchanged
func DeriveDirection(trainLineName string) string {
	if before, _, found := strings.Cut(trainLineName, "-"); found {
		return strings.TrimSpace(before)
	}
	return trainLineName
}
