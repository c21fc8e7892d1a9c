// Package storage keeps walking runs on disk: one directory per run with a
// metadata.json and a trace.csv of the time, support phase, state and
// control of every tick.
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

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/sim"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return errors.Wrapf(os.MkdirAll(s.baseDir, 0755), "create store %s", s.baseDir)
}

// RunInfo describes how a run was set up.
type RunInfo struct {
	Preset     string           `json:"preset,omitempty"`
	Settings   *config.Settings `json:"settings"`
	Solver     string           `json:"solver"`
	Integrator string           `json:"integrator"`
	Mode       string           `json:"mode"`
	Seed       int64            `json:"seed"`
}

type EventRecord struct {
	Iteration int    `json:"iteration"`
	Kind      string `json:"kind"`
	Foot      string `json:"foot,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Info      RunInfo            `json:"info"`
	Steps     int                `json:"steps"`
	Metrics   map[string]float64 `json:"metrics"`
	Events    []EventRecord      `json:"events"`
	Errors    []string           `json:"errors,omitempty"`
}

// Trace is the tick-by-tick record of a run. Phases and Controls hold the
// value applied from Times[i] on; the last row repeats the final phase and
// has a zero control.
type Trace struct {
	Times    []float64
	Phases   []horizon.Support
	States   [][]float64
	Controls [][]float64
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrapf(err, "create run %s", runID)
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Info:      info,
		Steps:     result.StepsTaken,
		Metrics:   result.Metrics,
		Events:    make([]EventRecord, 0, len(result.Events)),
	}
	for _, e := range result.Events {
		rec := EventRecord{Iteration: e.Iteration, Kind: e.Kind.String(), Foot: string(e.Foot)}
		if e.From != e.To {
			rec.From, rec.To = e.From.String(), e.To.String()
		}
		meta.Events = append(meta.Events, rec)
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", errors.Wrapf(err, "write metadata of %s", runID)
	}
	if err := writeTrace(filepath.Join(runDir, traceFile), result); err != nil {
		return "", errors.Wrapf(err, "write trace of %s", runID)
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

func writeTrace(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(result.States) == 0 {
		w.Flush()
		return w.Error()
	}

	nx := len(result.States[0])
	nu := 0
	if len(result.Controls) > 0 {
		nu = len(result.Controls[0])
	}
	header := []string{"time", "phase"}
	for i := 0; i < nx; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < nu; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	phase := horizon.DoubleSupport
	for i := range result.States {
		if i < len(result.Phases) {
			phase = result.Phases[i]
		}
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64), phase.String()}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', 10, 64))
		}
		if i < len(result.Controls) {
			for _, val := range result.Controls[i] {
				row = append(row, strconv.FormatFloat(val, 'g', 10, 64))
			}
		} else {
			for j := 0; j < nu; j++ {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrapf(err, "list %s", s.baseDir)
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "load run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode run %s", runID)
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (*Trace, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, errors.Wrapf(err, "load trace %s", runID)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "decode trace %s", runID)
	}

	tr := &Trace{}
	if len(records) < 2 {
		return tr, nil
	}
	nx, nu := 0, 0
	for _, name := range records[0][2:] {
		switch name[0] {
		case 'x':
			nx++
		case 'u':
			nu++
		}
	}

	for i, record := range records[1:] {
		values := make([]float64, len(record)-1)
		for j, field := range record {
			if j == 1 {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "trace %s row %d", runID, i+1)
			}
			if j == 0 {
				values[0] = v
			} else {
				values[j-1] = v
			}
		}
		phase, err := horizon.ParseSupport(record[1])
		if err != nil {
			return nil, errors.Wrapf(err, "trace %s row %d", runID, i+1)
		}
		tr.Times = append(tr.Times, values[0])
		tr.Phases = append(tr.Phases, phase)
		tr.States = append(tr.States, values[1:1+nx])
		tr.Controls = append(tr.Controls, values[1+nx:1+nx+nu])
	}
	return tr, nil
}

// LoadStates returns the states and times of a run.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	tr, err := s.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	return tr.States, tr.Times, nil
}
