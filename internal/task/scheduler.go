package task

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry policy for retryable cycle results: a fixed wait between
// attempts, bounded so duplicate work for one failed cycle stays a
// small constant.
const (
	DefaultInterval  = 30 * time.Second
	DefaultRetryWait = 60 * time.Second
	DefaultMaxRetry  = 3
)

// Scheduler triggers tracking cycles on a fixed cadence. A retryable
// result is re-run with a constant backoff up to MaxRetries times,
// then surfaced as a terminal failure in the log.
type Scheduler struct {
	runner    *Runner
	interval  time.Duration
	retryWait time.Duration
	maxRetry  uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler for the runner. Zero durations fall
// back to the defaults.
func NewScheduler(runner *Runner, interval, retryWait time.Duration, maxRetry int) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if retryWait <= 0 {
		retryWait = DefaultRetryWait
	}
	if maxRetry < 0 {
		maxRetry = DefaultMaxRetry
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:    runner,
		interval:  interval,
		retryWait: retryWait,
		maxRetry:  uint64(maxRetry),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the cycle loop
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop halts the loop and waits for an in-flight cycle to finish
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	// initial cycle, then the cadence
	s.RunCycle()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunCycle()
		case <-s.ctx.Done():
			return
		}
	}
}

// RunCycle executes one cycle, retrying systemic faults per the retry
// policy, and returns the final result
func (s *Scheduler) RunCycle() Result {
	var last Result
	op := func() error {
		last = s.runner.Run()
		if last.Retryable {
			return errors.New(last.Error)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryWait), s.maxRetry),
		s.ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		// operator-visible terminal failure
		log.Printf("Tracking cycle failed permanently after %d retries: %v", s.maxRetry, err)
		return last
	}

	switch last.Status {
	case StatusSuccess:
		log.Printf("Tracking cycle complete: %d trains at %s", last.TrainCount, last.StationName)
	default:
		log.Printf("Tracking cycle failed at %s: %s", last.Stage, last.Error)
	}
	return last
}
