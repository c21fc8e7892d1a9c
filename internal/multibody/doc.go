// Package multibody is a reference rigid-body dynamics engine for serial
// kinematic trees built from revolute and prismatic joints.
//
// The contact core only consumes what a rigid-body engine exposes: frame
// placements and Jacobians, the joint-space mass matrix, nonlinear effects,
// and the derivative buffers of inverse dynamics ([Data.DtauDq],
// [Data.DtauDv]) that contact models accumulate corrections into.
//
// Kinematics, the mass matrix and inverse dynamics are exact. The
// derivatives of inverse dynamics and of frame accelerations are computed
// by central finite differences of the exact quantities, which keeps the
// engine small while staying accurate to roughly 1e-8.
//
// Every joint has one degree of freedom, so NQ() == NV().
package multibody
