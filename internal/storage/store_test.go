package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/sim"
	"github.com/san-kum/stride/internal/wbc"
)

func testResult() *sim.Result {
	return &sim.Result{
		States: []dynamo.State{
			{0.0, 0.8, 0.0, 0.0},
			{0.01, 0.79, 0.1, -0.1},
			{0.02, 0.78, 0.1, -0.1},
		},
		Controls: []dynamo.Control{{1.5}, {-2.25}},
		Times:    []float64{0, 0.01, 0.02},
		Phases:   []horizon.Support{horizon.DoubleSupport, horizon.SingleSupportLeft},
		Events: []wbc.Event{
			{Iteration: 1, Kind: wbc.PhaseChange, From: horizon.DoubleSupport, To: horizon.SingleSupportLeft},
			{Iteration: 1, Kind: wbc.Takeoff, Foot: wbc.RightFoot},
		},
		Metrics:    map[string]float64{"control_effort": 1.5},
		Errors:     []error{sim.SimError{Step: 1, Time: 0.01, Message: "singular"}},
		StepsTaken: 2,
	}
}

func testInfo() RunInfo {
	return RunInfo{Preset: "walk", Settings: config.GetPreset("walk"), Solver: "posture", Integrator: "semi_euler", Mode: "walking", Seed: 42}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testInfo(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != runID || meta.Steps != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Info.Seed != 42 || *meta.Info.Settings != *config.GetPreset("walk") {
		t.Errorf("run info not preserved: %+v", meta.Info)
	}
	if meta.Metrics["control_effort"] != 1.5 {
		t.Errorf("expected effort 1.5, got %f", meta.Metrics["control_effort"])
	}
	want := []EventRecord{
		{Iteration: 1, Kind: "phase", From: "DS", To: "SSL"},
		{Iteration: 1, Kind: "takeoff", Foot: "RF"},
	}
	if len(meta.Events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(meta.Events))
	}
	for i := range want {
		if meta.Events[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, meta.Events[i], want[i])
		}
	}
	if len(meta.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", meta.Errors)
	}
}

func TestStoreLoadTrace(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testInfo(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	tr, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if len(tr.Times) != 3 || len(tr.States) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tr.Times))
	}
	wantPhases := []horizon.Support{horizon.DoubleSupport, horizon.SingleSupportLeft, horizon.SingleSupportLeft}
	for i, p := range wantPhases {
		if tr.Phases[i] != p {
			t.Errorf("row %d: phase %s, want %s", i, tr.Phases[i], p)
		}
	}
	if tr.States[1][1] != 0.79 || len(tr.States[1]) != 4 {
		t.Errorf("unexpected state row %v", tr.States[1])
	}
	if tr.Controls[1][0] != -2.25 || tr.Controls[2][0] != 0 {
		t.Errorf("unexpected controls %v", tr.Controls)
	}

	states, times, err := st.LoadStates(runID)
	if err != nil || len(states) != 3 || times[2] != 0.02 {
		t.Errorf("LoadStates: %v %v %v", states, times, err)
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := st.Save(testInfo(), testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID == runs[1].ID {
		t.Error("run ids collide")
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	runID, err := st.Save(testInfo(), &sim.Result{Metrics: map[string]float64{}})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for _, name := range []string{metadataFile, traceFile} {
		if _, err := os.Stat(filepath.Join(dir, runID, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, testInfo(), testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if data.Steps != 2 || len(data.States) != 3 {
		t.Errorf("unexpected export %+v", data)
	}
	if data.Phases[1] != "SSL" {
		t.Errorf("expected SSL, got %v", data.Phases)
	}
}
