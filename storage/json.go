package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// runLine is one line of the runs log.
type runLine struct {
	RunID string `json:"run_id"`
	Run   int    `json:"run"`
	Record
}

// JSONStore writes the final ranking to a single result file as an indented
// array of records, and appends each run's best to runs.jsonl beside it.
// It keeps one ranking: LoadResults ignores runID.
type JSONStore struct {
	path string

	mu   sync.Mutex
	runs *os.File
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("result file path is required")
	}
	if s.runs != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating result directory: %w", err)
	}
	f, err := os.OpenFile(s.runsPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening runs log: %w", err)
	}
	s.runs = f
	return nil
}

func (s *JSONStore) runsPath() string {
	return filepath.Join(filepath.Dir(s.path), "runs.jsonl")
}

func (s *JSONStore) SaveRunBest(_ context.Context, runID string, run int, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs == nil {
		return errNotInitialized
	}

	line, err := json.Marshal(runLine{RunID: runID, Run: run, Record: rec})
	if err != nil {
		return err
	}
	if _, err := s.runs.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending run %d: %w", run, err)
	}
	return nil
}

func (s *JSONStore) SaveResults(_ context.Context, _ string, recs []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs == nil {
		return errNotInitialized
	}
	return WriteResultFile(s.path, recs)
}

func (s *JSONStore) LoadResults(_ context.Context, _ string) ([]Record, error) {
	return ReadResultFile(s.path)
}

func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		return nil
	}
	err := s.runs.Close()
	s.runs = nil
	return err
}

// WriteResultFile writes recs as an indented JSON array, replacing path
// atomically.
func WriteResultFile(path string, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// ReadResultFile loads a result file written by WriteResultFile.
func ReadResultFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return recs, nil
}
