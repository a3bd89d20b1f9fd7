// Package history keeps a bounded, durable log of tracking snapshots.
// The log is a single JSON file holding the most recent entries,
// rewritten whole on every append via a temp-file rename so readers
// never see a partial write.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultCapacity bounds the log when no capacity is configured
const DefaultCapacity = 100

// Entry is one timestamped snapshot
type Entry struct {
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// NewEntry stamps a payload with the current time
func NewEntry(payload any) Entry {
	return Entry{
		Timestamp: time.Now().Format(time.RFC3339),
		Payload:   payload,
	}
}

// Store is the append-only bounded history log. Append is a
// read-modify-write over shared durable state, so it runs under a
// mutex; concurrent appends from one process never lose updates.
type Store struct {
	mu       sync.Mutex
	path     string
	capacity int
}

// NewStore creates a store writing to path, keeping at most capacity
// entries. Non-positive capacity falls back to DefaultCapacity.
func NewStore(path string, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{path: path, capacity: capacity}
}

// Append adds an entry and evicts the oldest beyond capacity. A
// missing or corrupt file counts as empty; corruption never blocks a
// new write.
func (s *Store) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.readEntries()
	entries = append(entries, entry)
	if len(entries) > s.capacity {
		entries = entries[len(entries)-s.capacity:]
	}

	return s.write(entries)
}

// Entries returns the stored log, oldest first
func (s *Store) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readEntries(), nil
}

func (s *Store) readEntries() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}

func (s *Store) write(entries []Entry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	// write-replace: readers only ever see a complete file
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("creating temp history file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing history file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}
