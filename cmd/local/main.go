package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jusunglee/subway-go/internal/models"
	"github.com/jusunglee/subway-go/internal/seoulapi"
	"github.com/jusunglee/subway-go/internal/tracker"
)

func main() {
	var (
		apiKey    = flag.String("api-key", "", "Seoul subway API key")
		station   = flag.String("station", "신도림", "Station to query")
		line      = flag.String("line", "", "Line code filter (e.g. 1002)")
		direction = flag.String("direction", "", "Direction substring filter")
	)
	flag.Parse()

	// Fallback to environment variable if API key not provided via flag
	if *apiKey == "" {
		*apiKey = os.Getenv("SUBWAY_API_KEY")
	}
	if *apiKey == "" {
		slog.Error("Subway API key required (use -api-key flag or SUBWAY_API_KEY env var)")
		os.Exit(1)
	}

	tr := tracker.New(seoulapi.NewClient(*apiKey))

	result, err := tr.TrackStation(*station, *line, *direction)
	if err != nil {
		slog.Error("Failed to track station", "station", *station, "error", err)
		os.Exit(1)
	}
	if !result.OK {
		slog.Error("Upstream API error", "error", result.ErrorMessage)
		os.Exit(1)
	}

	fmt.Printf("\n%d trains heading to %s:\n", result.Count, *station)
	for _, train := range result.Trains {
		fmt.Printf("\n%s - %s\n", train.TrainNo, train.TrainLineName)
		fmt.Printf("  Line: %s\n", train.SubwayName)
		fmt.Printf("  Arrives in: %ds (%dm %ds)\n", train.ArrivalTime, train.ArrivalTime/60, train.ArrivalTime%60)
		fmt.Printf("  Message: %s\n", train.ArrivalMsg)
		fmt.Printf("  Currently at: %s\n", train.CurrentStation)
		fmt.Printf("  Status: %s\n", models.StatusText(train.Status))
		if train.IsExpress {
			fmt.Println("  Express")
		}
		if train.IsLastTrain {
			fmt.Println("  Last train")
		}
	}

	// Show matched live positions when a known line is being tracked
	if *line != "" && models.LineName(*line) != "" && result.Count > 0 {
		recon, err := tr.MatchPositions(result.Trains, *line)
		if err != nil {
			slog.Error("Failed to fetch positions", "line", *line, "error", err)
			os.Exit(1)
		}
		if recon.SkippedReason != "" {
			fmt.Printf("\nPosition lookup skipped: %s\n", recon.SkippedReason)
			return
		}

		fmt.Printf("\nLive positions on %s:\n", models.LineName(*line))
		for _, match := range recon.Matches {
			fmt.Printf("  %s: %s → %s\n", match.TrainNo, match.CurrentStation, match.NextStation)
		}
	}
}
