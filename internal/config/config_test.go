package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/stride/internal/dynamo"
)

const validYAML = `
horizonSteps: 2
totalSteps: 4
T: 100
TdoubleSupport: 100
TsingleSupport: 80
Tstep: 180
ddpIteration: 1
Dt: 0.01
simu_step: 0.001
Nc: 1
`

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	if s.Duration() <= 0 {
		t.Error("duration should be positive")
	}
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatal(err)
	}
	if s.Tstep != 180 || s.SimuStep != 0.001 || s.Nc != 1 {
		t.Errorf("unexpected settings %+v", s)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{
			name: "missing key",
			yaml: strings.Replace(validYAML, "Nc: 1\n", "", 1),
			want: []string{`missing key "Nc"`},
		},
		{
			name: "unknown key",
			yaml: validYAML + "stepHeight: 0.05\n",
			want: []string{`unrecognized key "stepHeight"`},
		},
		{
			name: "missing and unknown",
			yaml: strings.Replace(validYAML, "Dt: 0.01\n", "dt: 0.01\n", 1),
			want: []string{`missing key "Dt"`, `unrecognized key "dt"`},
		},
		{
			name: "inconsistent step",
			yaml: strings.Replace(validYAML, "Tstep: 180", "Tstep: 200", 1),
			want: []string{"Tstep 200"},
		},
		{
			name: "bad values",
			yaml: strings.Replace(strings.Replace(validYAML, "T: 100", "T: 0", 1), "simu_step: 0.001", "simu_step: 0.5", 1),
			want: []string{"T must be positive", "simu_step"},
		},
		{
			name: "wrong type",
			yaml: strings.Replace(validYAML, "T: 100", "T: long", 1),
			want: []string{"long"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, dynamo.ErrConfiguration) {
				t.Fatalf("got %v, want configuration error", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	want := GetPreset("walk")
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *want {
		t.Errorf("round trip: got %+v, want %+v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v", err)
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	s := GetPreset("walk")
	s.T = 1
	if Presets["walk"].T == 1 {
		t.Error("preset modified through returned settings")
	}
}
