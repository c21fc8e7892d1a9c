package integrators

import (
	"testing"

	"github.com/san-kum/stride/internal/dynamo"
)

func benchmarkIntegrator(b *testing.B, name string) {
	integrator, err := New(name)
	if err != nil {
		b.Fatal(err)
	}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(oscillator{}, x, nil, 0, 0.01)
	}
}

func BenchmarkEuler(b *testing.B)  { benchmarkIntegrator(b, "euler") }
func BenchmarkRK4(b *testing.B)    { benchmarkIntegrator(b, "rk4") }
func BenchmarkVerlet(b *testing.B) { benchmarkIntegrator(b, "verlet") }

func BenchmarkSemiImplicitEuler(b *testing.B) { benchmarkIntegrator(b, "semi_euler") }
