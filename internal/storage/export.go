package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/stride/internal/sim"
)

type ExportData struct {
	Info     RunInfo            `json:"info"`
	Steps    int                `json:"steps"`
	Times    []float64          `json:"times"`
	Phases   []string           `json:"phases"`
	States   [][]float64        `json:"states"`
	Controls [][]float64        `json:"controls"`
	Metrics  map[string]float64 `json:"metrics"`
}

// ExportJSON writes the whole run as one JSON document.
func ExportJSON(w io.Writer, info RunInfo, result *sim.Result) error {
	data := ExportData{
		Info:     info,
		Steps:    result.StepsTaken,
		Times:    result.Times,
		Phases:   make([]string, len(result.Phases)),
		States:   make([][]float64, len(result.States)),
		Controls: make([][]float64, len(result.Controls)),
		Metrics:  result.Metrics,
	}

	for i, p := range result.Phases {
		data.Phases[i] = p.String()
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
