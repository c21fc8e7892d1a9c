package config

import "sort"

// Presets are named gaits for the bundled biped.
var Presets = map[string]*Settings{
	"walk": {
		HorizonSteps: 2, TotalSteps: 4, T: 100,
		TdoubleSupport: 50, TsingleSupport: 100, Tstep: 150,
		DDPIteration: 1, Dt: 0.01, SimuStep: 0.001, Nc: 10,
	},
	"slow": {
		HorizonSteps: 2, TotalSteps: 3, T: 100,
		TdoubleSupport: 100, TsingleSupport: 80, Tstep: 180,
		DDPIteration: 1, Dt: 0.01, SimuStep: 0.001, Nc: 1,
	},
	"stand": {
		HorizonSteps: 1, TotalSteps: 1, T: 50,
		TdoubleSupport: 50, TsingleSupport: 50, Tstep: 100,
		DDPIteration: 1, Dt: 0.01, SimuStep: 0.002, Nc: 5,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Settings {
	s, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *s
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
