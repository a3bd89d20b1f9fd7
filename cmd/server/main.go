package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jusunglee/subway-go/api/handlers"
	"github.com/jusunglee/subway-go/internal/config"
	"github.com/jusunglee/subway-go/pkg/subway"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file path (optional)")
		port       = flag.String("port", "", "Server port (overrides config)")
		apiKey     = flag.String("api-key", "", "Seoul subway API key")
		station    = flag.String("station", "", "Station to track (overrides config)")
		line       = flag.String("line", "", "Line code filter (overrides config)")
	)
	flag.Parse()

	// Check for API key in environment if not provided
	if *apiKey == "" {
		*apiKey = os.Getenv("SUBWAY_API_KEY")
	}
	if *apiKey == "" {
		log.Fatal("Subway API key required (use -api-key flag or SUBWAY_API_KEY env var)")
	}

	clientConfig := subway.DefaultConfig()
	clientConfig.APIKey = *apiKey
	serverPort := "8080"

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		clientConfig.StationName = cfg.Station.Name
		clientConfig.LineID = cfg.Station.Line
		if cfg.API.BaseURL != "" {
			clientConfig.BaseURL = cfg.API.BaseURL
		}
		clientConfig.HistoryFile = cfg.History.Path
		clientConfig.HistoryCapacity = cfg.History.Capacity
		clientConfig.PollInterval = time.Duration(cfg.Poll.IntervalMS) * time.Millisecond
		clientConfig.RetryWait = time.Duration(cfg.Poll.RetryWaitMS) * time.Millisecond
		clientConfig.MaxRetries = cfg.Poll.MaxRetries
		serverPort = fmt.Sprintf("%d", cfg.Server.Port)
	}

	// Flags win over the config file
	if *station != "" {
		clientConfig.StationName = *station
	}
	if *line != "" {
		clientConfig.LineID = *line
	}
	if *port != "" {
		serverPort = *port
	}

	client, err := subway.NewLocal(clientConfig)
	if err != nil {
		log.Fatalf("Failed to create subway client: %v", err)
	}
	defer client.Close()

	log.Printf("Tracking station %s (line %q), polling every %v",
		clientConfig.StationName, clientConfig.LineID, clientConfig.PollInterval)

	// Create HTTP server
	r := mux.NewRouter()
	h := handlers.NewHandler(client)
	h.RegisterRoutes(r)

	// Add middleware
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on port %s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server stopped")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
