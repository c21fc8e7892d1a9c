// Package dynamo provides the shared primitives of the legged-dynamics core.
//
// The package defines the vocabulary every other package speaks:
//
//   - [State]: stacked configuration and velocity vector x = [q; v]
//   - [Control]: actuation vector u
//   - [Controller]: feedback policy computing u from x
//   - [Metric] and [Observer]: hooks called once per control tick
//   - sentinel errors for structural, configuration and numerical failures
//
// # Errors
//
// Structural mismatches fail fast with [ErrInvalidArgument]; settings
// problems surface as [ErrConfiguration]; a singular constrained-dynamics
// system is reported as [ErrNumericalDegeneracy]. Per-contact failures are
// wrapped in [ContactError] so callers can still test them with errors.Is.
//
// # Thread Safety
//
// Models are read-only once built; their Data buffers are owned by a single
// caller and mutated in place. Use [ParallelFor] only over disjoint Data.
package dynamo
