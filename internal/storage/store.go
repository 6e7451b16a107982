package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

// Store keeps each run in its own directory: metadata.json plus turns.csv
// with one row per particle per recorded turn.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	RF          rf.Config          `json:"rf"`
	Machine     rf.Machine         `json:"machine"`
	Synchronous bucket.Synchronous `json:"synchronous"`
	Turns       int                `json:"turns"`
	Particles   int                `json:"particles"`
	Changes     []beam.Change      `json:"rf_changes,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// NewRunID returns a unique, name-prefixed run identifier.
func NewRunID(name string) string {
	if name == "" {
		name = "run"
	}
	return fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
}

// Save writes meta and history under a new run directory and returns the
// run ID. An empty meta.ID is filled in.
func (s *Store) Save(meta RunMetadata, history []beam.Snapshot) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Name)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "turns.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteSnapshots(csvFile, history); err != nil {
		return "", fmt.Errorf("write turns: %w", err)
	}
	return meta.ID, nil
}

// WriteSnapshots writes history as turn,particle,phi_s,phi,delta_e rows.
func WriteSnapshots(out io.Writer, history []beam.Snapshot) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"turn", "particle", "phi_s", "phi", "delta_e"}); err != nil {
		return err
	}
	for _, snap := range history {
		turn := strconv.Itoa(snap.Turn)
		phase := formatFloat(snap.Phase)
		for i := range snap.Phi {
			row := []string{turn, strconv.Itoa(i), phase, formatFloat(snap.Phi[i]), formatFloat(snap.DeltaE[i])}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSnapshots reads the recorded turns of a run back into snapshots.
func (s *Store) LoadSnapshots(runID string) ([]beam.Snapshot, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "turns.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 5
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	var out []beam.Snapshot
	for i, rec := range records {
		if i == 0 {
			continue
		}
		turn, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, i+1, err)
		}
		vals, err := parseFloats(rec[2:])
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, i+1, err)
		}
		if len(out) == 0 || out[len(out)-1].Turn != turn {
			out = append(out, beam.Snapshot{Turn: turn, Phase: vals[0]})
		}
		last := &out[len(out)-1]
		last.Phi = append(last.Phi, vals[1])
		last.DeltaE = append(last.DeltaE, vals[2])
	}
	return out, nil
}

// LoadParticles reads initial coordinates from a CSV file with phi and
// delta_e columns. A header row is skipped when its first field is not a
// number.
func LoadParticles(path string) (phi, dE []float64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	for i, rec := range records {
		if len(rec) < 2 {
			return nil, nil, fmt.Errorf("%s line %d: want phi,delta_e", path, i+1)
		}
		vals, err := parseFloats(rec[:2])
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		phi = append(phi, vals[0])
		dE = append(dE, vals[1])
	}
	return phi, dE, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
