package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/qcdsim/internal/config"
)

const (
	metadataFile   = "metadata.json"
	timeSliceFile  = "timeslices.csv"
	residualFile   = "residuals.csv"
	correlatorFile = "correlators.csv"
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

// InversionRecord is the persisted form of one solver call.
type InversionRecord struct {
	Spin       int     `json:"spin"`
	Colour     int     `json:"colour"`
	Method     string  `json:"method"`
	Residual   float64 `json:"residual"`
	Iterations int     `json:"iterations"`
	ElapsedMS  float64 `json:"elapsed_ms"`
	Converged  bool    `json:"converged"`
}

// RunMetadata describes a stored propagator run. Gauge configurations are
// never written.
type RunMetadata struct {
	ID         string             `json:"id"`
	Action     string             `json:"action"`
	Timestamp  time.Time          `json:"timestamp"`
	Config     *config.Config     `json:"config"`
	Plaquette  float64            `json:"plaquette"`
	Inversions []InversionRecord  `json:"inversions"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Run bundles everything Save writes.
type Run struct {
	Meta       RunMetadata
	TimeSlices []float64
	// Residuals holds the residual history of each inversion.
	Residuals   [][]float64
	Correlators []Correlator
}

// Correlator is a named meson correlator, one value per time slice.
type Correlator struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Save writes run under a fresh ID and returns it.
func (s *Store) Save(run *Run) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", run.Meta.Action, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := run.Meta
	meta.ID = runID
	meta.Timestamp = now

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	rows := [][]string{{"t", "norm"}}
	for t, v := range run.TimeSlices {
		rows = append(rows, []string{strconv.Itoa(t), strconv.FormatFloat(v, 'g', -1, 64)})
	}
	if err := writeCSV(filepath.Join(runDir, timeSliceFile), rows); err != nil {
		return "", err
	}

	rows = [][]string{{"inversion", "iteration", "residual"}}
	for i, hist := range run.Residuals {
		for k, r := range hist {
			rows = append(rows, []string{
				strconv.Itoa(i),
				strconv.Itoa(k + 1),
				strconv.FormatFloat(r, 'g', -1, 64),
			})
		}
	}
	if err := writeCSV(filepath.Join(runDir, residualFile), rows); err != nil {
		return "", err
	}

	if len(run.Correlators) > 0 {
		if err := writeCSV(filepath.Join(runDir, correlatorFile), correlatorRows(run.Correlators)); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, nil
	}
	return records[1:], nil
}

// LoadTimeSlices returns the per-time-slice propagator norms of a run.
func (s *Store) LoadTimeSlices(runID string) ([]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, timeSliceFile))
	if err != nil {
		return nil, err
	}

	norms := make([]float64, 0, len(records))
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", timeSliceFile, err)
		}
		norms = append(norms, v)
	}
	return norms, nil
}

// LoadResiduals returns the residual history of every inversion of a run.
func (s *Store) LoadResiduals(runID string) ([][]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, residualFile))
	if err != nil {
		return nil, err
	}

	var hists [][]float64
	for _, record := range records {
		if len(record) < 3 {
			continue
		}
		inv, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", residualFile, err)
		}
		v, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", residualFile, err)
		}
		for len(hists) <= inv {
			hists = append(hists, nil)
		}
		hists[inv] = append(hists[inv], v)
	}
	return hists, nil
}

// correlatorRows lays correlators out one column per channel.
func correlatorRows(cs []Correlator) [][]string {
	header := []string{"t"}
	nt := 0
	for _, c := range cs {
		header = append(header, c.Name)
		nt = max(nt, len(c.Values))
	}
	rows := [][]string{header}
	for t := 0; t < nt; t++ {
		row := []string{strconv.Itoa(t)}
		for _, c := range cs {
			v := ""
			if t < len(c.Values) {
				v = strconv.FormatFloat(c.Values[t], 'g', -1, 64)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows
}

// LoadCorrelators returns the meson correlators of a run. Runs stored
// without correlators return nil.
func (s *Store) LoadCorrelators(runID string) ([]Correlator, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, correlatorFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", correlatorFile, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cs := make([]Correlator, len(records[0])-1)
	for i := range cs {
		cs[i].Name = records[0][i+1]
	}
	for _, record := range records[1:] {
		for i := range cs {
			if record[i+1] == "" {
				continue
			}
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", correlatorFile, err)
			}
			cs[i].Values = append(cs[i].Values, v)
		}
	}
	return cs, nil
}
