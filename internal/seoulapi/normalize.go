package seoulapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jusunglee/subway-go/internal/models"
)

// normalizeArrivals maps the raw realtimeArrivalList payload to
// canonical arrival records. Missing fields default to zero values; a
// payload whose list is not list-shaped fails the whole batch, since
// the vendor contract guarantees uniform shape.
func normalizeArrivals(payload map[string]any) ([]models.Arrival, error) {
	items, err := recordList(payload, "realtimeArrivalList")
	if err != nil {
		return nil, err
	}

	trains := make([]models.Arrival, 0, len(items))
	for _, item := range items {
		lineName := stringField(item, "trainLineNm")
		trains = append(trains, models.Arrival{
			TrainNo:        stringField(item, "trainNo"),
			TrainLineName:  lineName,
			SubwayID:       stringField(item, "subwayId"),
			SubwayName:     stringField(item, "subwayNm"),
			StationName:    stringField(item, "statnNm"),
			ArrivalTime:    secondsField(item, "barvlDt"),
			ArrivalMsg:     stringField(item, "arvlMsg2"),
			ArrivalCode:    stringField(item, "arvlCd"),
			CurrentStation: stringField(item, "arvlMsg3"),
			UpDown:         stringField(item, "updnLine"),
			Direction:      models.DeriveDirection(lineName),
			IsExpress:      flagField(item, "directAt"),
			IsLastTrain:    flagField(item, "lstcarAt"),
			Status:         stringField(item, "trainSttus"),
			ReceivedTime:   stringField(item, "recptnDt"),
		})
	}
	return trains, nil
}

// normalizePositions maps the raw realtimePositionList payload to
// canonical position records
func normalizePositions(payload map[string]any) ([]models.Position, error) {
	items, err := recordList(payload, "realtimePositionList")
	if err != nil {
		return nil, err
	}

	trains := make([]models.Position, 0, len(items))
	for _, item := range items {
		trains = append(trains, models.Position{
			TrainNo:        stringField(item, "trainNo"),
			Status:         stringField(item, "trainSttus"),
			CurrentStation: stringField(item, "statnNm"),
			NextStation:    stringField(item, "statnTnm"),
			Direction:      stringField(item, "trainLineNm"),
			UpDown:         stringField(item, "updnLine"),
			SubwayID:       stringField(item, "subwayId"),
			ReceivedTime:   stringField(item, "recptnDt"),
		})
	}
	return trains, nil
}

// recordList extracts the named list of record maps from a payload.
// A missing key is an empty list; a present key of the wrong shape is
// a parsing failure for the whole response.
func recordList(payload map[string]any, key string) ([]map[string]any, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("response parsing failed: %s is %T, not a list", key, raw)
	}

	items := make([]map[string]any, 0, len(list))
	for i, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("response parsing failed: %s[%d] is %T, not an object", key, i, entry)
		}
		items = append(items, item)
	}
	return items, nil
}

// stringField reads a string field, defaulting to ""
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// flagField reads a "0"/"1" vendor flag, defaulting to false
func flagField(m map[string]any, key string) bool {
	return stringField(m, key) == "1"
}

// secondsField parses a time-to-arrival field that the vendor sends as
// a numeric string. Parsing fails closed: missing, non-numeric or
// negative input yields 0, never an error.
func secondsField(m map[string]any, key string) int {
	var n int
	switch v := m[key].(type) {
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		n = parsed
	case float64:
		n = int(v)
	default:
		return 0
	}

	if n < 0 {
		return 0
	}
	return n
}
