// Package storage keeps each run in its own directory under a base
// dir: metadata.json, thermo.csv and the trajectory file.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

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
	ID          string    `json:"id"`
	Model       string    `json:"model"`
	Timestamp   time.Time `json:"timestamp"`
	Seed        int64     `json:"seed"`
	Dt          float64   `json:"dt"`
	Particles   int       `json:"particles"`
	Density     float64   `json:"density"`
	Temperature float64   `json:"temperature"`
	Steps       int       `json:"steps"`
	FinalStep   int       `json:"final_step"`
	WallTime    float64   `json:"wall_time_s"`
	Termination string    `json:"termination"`
}

// Run is an open run directory accepting thermo rows until Finish.
type Run struct {
	id     string
	dir    string
	thermo *os.File
	csvw   *csv.Writer
}

// Begin creates a fresh run directory and its thermo file.
func (s *Store) Begin(model string) (*Run, error) {
	id := fmt.Sprintf("%s_%d", model, time.Now().UnixNano())
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, "thermo.csv"))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"step", "temperature", "kinetic_energy"}); err != nil {
		f.Close()
		return nil, err
	}
	return &Run{id: id, dir: dir, thermo: f, csvw: w}, nil
}

func (r *Run) ID() string { return r.id }

// TrajectoryPath is where the run's trajectory file lives.
func (r *Run) TrajectoryPath() string {
	return filepath.Join(r.dir, "trajectory.xyz")
}

// AppendThermo records one thermodynamic sample.
func (r *Run) AppendThermo(step int, temperature, kinetic float64) error {
	return r.csvw.Write([]string{
		strconv.Itoa(step),
		strconv.FormatFloat(temperature, 'g', -1, 64),
		strconv.FormatFloat(kinetic, 'g', -1, 64),
	})
}

// Finish writes the metadata file and closes the thermo file.
func (r *Run) Finish(meta RunMetadata) error {
	meta.ID = r.id
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	r.csvw.Flush()
	if err := r.csvw.Error(); err != nil {
		r.thermo.Close()
		return err
	}
	if err := r.thermo.Close(); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(r.dir, "metadata.json"))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List loads the metadata of every run under the base dir. Runs with
// missing or unreadable metadata are skipped.
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
	return runs, nil
}

func (s *Store) Load(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// TrajectoryPath is the trajectory file of a finished run.
func (s *Store) TrajectoryPath(id string) string {
	return filepath.Join(s.baseDir, id, "trajectory.xyz")
}

// LoadThermo reads back the thermo samples of a run.
func (s *Store) LoadThermo(id string) (steps []int, temperature, kinetic []float64, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, "thermo.csv"))
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	for i, rec := range records {
		if i == 0 || len(rec) < 3 {
			continue
		}
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		k, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		steps = append(steps, step)
		temperature = append(temperature, t)
		kinetic = append(kinetic, k)
	}
	return steps, temperature, kinetic, nil
}
