package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rigidsim/internal/sim"
)

type ExportData struct {
	Scene    string             `json:"scene"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Frames   []sim.Frame        `json:"frames"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewExportData(scene string, dt, duration float64, steps int, frames []sim.Frame, metrics map[string]float64) ExportData {
	return ExportData{
		Scene:    scene,
		Dt:       dt,
		Duration: duration,
		Steps:    steps,
		Frames:   frames,
		Metrics:  metrics,
	}
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, data)
}

// WriteJSON writes indented JSON to out, for example os.Stdout.
func WriteJSON(out io.Writer, data ExportData) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
