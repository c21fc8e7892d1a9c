package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/stride/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler":      func() dynamo.Integrator { return NewEuler() },
	"semi_euler": func() dynamo.Integrator { return NewSemiImplicitEuler() },
	"midpoint":   func() dynamo.Integrator { return NewMidpoint() },
	"rk4":        func() dynamo.Integrator { return NewRK4() },
	"verlet":     func() dynamo.Integrator { return NewVerlet() },
}

// New returns a fresh integrator by name.
func New(name string) (dynamo.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrInvalidArgument, name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
