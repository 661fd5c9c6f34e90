package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportData is the self-contained JSON form of a run.
type ExportData struct {
	Meta        RunMetadata  `json:"meta"`
	TimeSlices  []float64    `json:"timeslices"`
	Residuals   [][]float64  `json:"residuals"`
	Correlators []Correlator `json:"correlators,omitempty"`
}

func (s *Store) exportData(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	ts, err := s.LoadTimeSlices(runID)
	if err != nil {
		return nil, err
	}
	res, err := s.LoadResiduals(runID)
	if err != nil {
		return nil, err
	}
	cs, err := s.LoadCorrelators(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Meta: *meta, TimeSlices: ts, Residuals: res, Correlators: cs}, nil
}

// ExportJSON writes a stored run as a single JSON document to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	data, err := s.exportData(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile is ExportJSON into a file at path.
func (s *Store) ExportJSONFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(file, runID)
}
