// Package storage persists GA results: the best genotype of every run as it
// finishes and the final re-evaluated ranking.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pthm-cable/chemotaxis/evolve"
	"github.com/pthm-cable/chemotaxis/neural"
)

var (
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrNotFound       = errors.New("no results stored")
	errNotInitialized = errors.New("store is not initialized")
)

// Record is one genotype and its chemotaxis index, in the result file layout.
type Record struct {
	Fitness float64   `json:"value"`
	Gene    []float64 `json:"gene"`
}

// FromIndividual converts a GA individual into a record.
func FromIndividual(ind evolve.Individual) Record {
	return Record{Fitness: ind.Fitness, Gene: append([]float64(nil), ind.Genotype...)}
}

// Individual converts the record back into a GA individual.
func (r Record) Individual() evolve.Individual {
	return evolve.Individual{Genotype: neural.Genotype(append([]float64(nil), r.Gene...)), Fitness: r.Fitness}
}

// Store defines persistence of GA results. runID scopes records to one
// invocation of the optimizer.
type Store interface {
	Init(ctx context.Context) error
	SaveRunBest(ctx context.Context, runID string, run int, rec Record) error
	SaveResults(ctx context.Context, runID string, recs []Record) error
	// LoadResults returns the final ranking of runID, or of the most recent
	// invocation when runID is empty. ErrNotFound when nothing matches.
	LoadResults(ctx context.Context, runID string) ([]Record, error)
	Close() error
}

// NewRunID returns a fresh invocation identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewStore builds a store by backend name. path is the result file for
// "json" and the database file for "sqlite"; "memory" ignores it.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "json":
		return NewJSONStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, kind)
	}
}

// Sink adapts a Store to the GA engine for a single invocation.
type Sink struct {
	Store Store
	RunID string
}

func (s Sink) SaveRunBest(ctx context.Context, run int, best evolve.Individual) error {
	return s.Store.SaveRunBest(ctx, s.RunID, run, FromIndividual(best))
}

func (s Sink) SaveResults(ctx context.Context, results evolve.Population) error {
	recs := make([]Record, len(results))
	for i, ind := range results {
		recs[i] = FromIndividual(ind)
	}
	return s.Store.SaveResults(ctx, s.RunID, recs)
}
