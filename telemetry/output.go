package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/chemotaxis/analysis"
	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/evolve"
)

// ResultRow is one final genotype in results.csv.
type ResultRow struct {
	RunID    string  `csv:"run_id"`
	Rank     int     `csv:"rank"`
	Fitness  float64 `csv:"fitness"`
	Genotype string  `csv:"genotype"`
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir            string
	generationFile *os.File
	bookmarkFile   *os.File

	// Track if headers have been written
	generationHeaderWritten bool
	bookmarkHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "generations.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating generations.csv: %w", err)
	}
	om.generationFile = f

	f, err = os.Create(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		om.generationFile.Close()
		return nil, fmt.Errorf("creating bookmarks.csv: %w", err)
	}
	om.bookmarkFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// appendRecords writes records to f, with a header on the first call.
func appendRecords(f *os.File, headerWritten *bool, records any) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteGeneration appends a generation record to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}
	if err := appendRecords(om.generationFile, &om.generationHeaderWritten, []GenerationStats{stats}); err != nil {
		return fmt.Errorf("writing generation: %w", err)
	}
	return nil
}

// WriteBookmark appends a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := appendRecords(om.bookmarkFile, &om.bookmarkHeaderWritten, []Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteResults saves the final ranked genotypes as results.csv.
func (om *OutputManager) WriteResults(runID string, results evolve.Population) error {
	if om == nil {
		return nil
	}
	rows := make([]ResultRow, len(results))
	for i, ind := range results {
		rows[i] = ResultRow{
			RunID:    runID,
			Rank:     i + 1,
			Fitness:  ind.Fitness,
			Genotype: formatGenotype(ind.Genotype),
		}
	}

	path := filepath.Join(om.dir, "results.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results.csv: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("writing results.csv: %w", err)
	}
	return nil
}

// WriteHistogram saves an analysis histogram under the output directory.
func (om *OutputManager) WriteHistogram(name string, h *analysis.Histogram) error {
	if om == nil {
		return nil
	}
	return WriteHistogram(filepath.Join(om.dir, name), h)
}

// Path joins name onto the output directory, or returns "" when output is disabled.
func (om *OutputManager) Path(name string) string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, name)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.generationFile != nil {
		if err := om.generationFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.bookmarkFile != nil {
		if err := om.bookmarkFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func formatGenotype(g []float64) string {
	b := make([]byte, 0, len(g)*10)
	for i, v := range g {
		if i > 0 {
			b = append(b, ' ')
		}
		b = fmt.Appendf(b, "%.6f", v)
	}
	return string(b)
}
