package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/stride/internal/dynamo"
)

const (
	DefaultHorizonSteps   = 2
	DefaultTotalSteps     = 4
	DefaultT              = 100
	DefaultTdoubleSupport = 50
	DefaultTsingleSupport = 100
	DefaultDDPIteration   = 1
	DefaultDt             = 0.01
	DefaultSimuStep       = 0.001
	DefaultNc             = 10
)

// Settings configures the whole-body controller. Durations T* are counted
// in horizon nodes; Dt is the node duration and simu_step the simulation
// step in seconds.
type Settings struct {
	HorizonSteps   int     `yaml:"horizonSteps"`
	TotalSteps     int     `yaml:"totalSteps"`
	T              int     `yaml:"T"`
	TdoubleSupport int     `yaml:"TdoubleSupport"`
	TsingleSupport int     `yaml:"TsingleSupport"`
	Tstep          int     `yaml:"Tstep"`
	DDPIteration   int     `yaml:"ddpIteration"`
	Dt             float64 `yaml:"Dt"`
	SimuStep       float64 `yaml:"simu_step"`
	// Nc is the number of control ticks between two horizon re-solves.
	Nc int `yaml:"Nc"`
}

// Keys lists every recognized settings key.
var Keys = []string{
	"horizonSteps", "totalSteps", "T", "TdoubleSupport", "TsingleSupport",
	"Tstep", "ddpIteration", "Dt", "simu_step", "Nc",
}

func DefaultSettings() *Settings {
	return &Settings{
		HorizonSteps:   DefaultHorizonSteps,
		TotalSteps:     DefaultTotalSteps,
		T:              DefaultT,
		TdoubleSupport: DefaultTdoubleSupport,
		TsingleSupport: DefaultTsingleSupport,
		Tstep:          DefaultTdoubleSupport + DefaultTsingleSupport,
		DDPIteration:   DefaultDDPIteration,
		Dt:             DefaultDt,
		SimuStep:       DefaultSimuStep,
		Nc:             DefaultNc,
	}
}

// Validate reports every inconsistency at once, wrapped in
// dynamo.ErrConfiguration.
func (s *Settings) Validate() error {
	var errs error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("horizonSteps", s.HorizonSteps)
	positive("totalSteps", s.TotalSteps)
	positive("T", s.T)
	positive("TdoubleSupport", s.TdoubleSupport)
	positive("TsingleSupport", s.TsingleSupport)
	positive("ddpIteration", s.DDPIteration)
	positive("Nc", s.Nc)
	if s.Tstep != s.TdoubleSupport+s.TsingleSupport {
		errs = multierr.Append(errs, fmt.Errorf("Tstep %d must equal TdoubleSupport + TsingleSupport = %d",
			s.Tstep, s.TdoubleSupport+s.TsingleSupport))
	}
	if s.Dt <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("Dt must be positive, got %g", s.Dt))
	}
	if s.SimuStep <= 0 || s.SimuStep > s.Dt {
		errs = multierr.Append(errs, fmt.Errorf("simu_step must be in (0, Dt], got %g", s.SimuStep))
	}
	if errs != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrConfiguration, errs)
	}
	return nil
}

// Duration is the walking time in seconds.
func (s *Settings) Duration() float64 {
	return float64(s.TotalSteps*s.Tstep) * s.Dt
}

// Parse decodes settings from YAML. Unknown and missing keys are both
// configuration errors.
func Parse(data []byte) (*Settings, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrConfiguration, err)
	}

	var errs error
	known := make(map[string]bool, len(Keys))
	for _, k := range Keys {
		known[k] = true
		if _, ok := raw[k]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("missing key %q", k))
		}
	}
	unknown := make([]string, 0)
	for k := range raw {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		errs = multierr.Append(errs, fmt.Errorf("unrecognized key %q", k))
	}
	if errs != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrConfiguration, errs)
	}

	s := &Settings{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrConfiguration, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read settings %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load settings %s", path)
	}
	return s, nil
}

func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write settings %s", path)
}
