package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
)

// ExportCurve is one separatrix in exported form.
type ExportCurve struct {
	Well   int       `json:"well"`
	Level  float64   `json:"level"`
	Center float64   `json:"center"`
	PhiMin float64   `json:"phi_min"`
	PhiMax float64   `json:"phi_max"`
	Area   float64   `json:"area"`
	Phi    []float64 `json:"phi"`
	DeltaE []float64 `json:"delta_e"`
}

type ExportData struct {
	Run          RunMetadata     `json:"run"`
	Separatrices []ExportCurve   `json:"separatrices"`
	Snapshots    []beam.Snapshot `json:"snapshots"`
}

func NewExportData(meta RunMetadata, seps []bucket.Separatrix, history []beam.Snapshot) ExportData {
	data := ExportData{
		Run:          meta,
		Separatrices: make([]ExportCurve, 0, len(seps)),
		Snapshots:    history,
	}
	for _, s := range seps {
		data.Separatrices = append(data.Separatrices, ExportCurve{
			Well:   s.Well,
			Level:  s.Level,
			Center: s.Center,
			PhiMin: s.PhiMin,
			PhiMax: s.PhiMax,
			Area:   s.Area(),
			Phi:    s.Phi,
			DeltaE: s.DeltaE,
		})
	}
	return data
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
