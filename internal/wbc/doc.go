// Package wbc is the whole-body walking controller. It keeps a receding
// horizon of contact dynamics models in step with a cyclic gait, shapes
// measured postures into solver states, and re-solves the horizon on
// schedule.
//
// # Timing
//
// Durations are counted in horizon nodes. The horizon recedes by one node
// every Nc control ticks. A gait cycle lasts 2*Tstep nodes: double
// support, left support (right foot swinging), double support, right
// support. The timers of the four foot events count the recedes left
// until the event reaches node 0; a flag is raised on the tick its timer
// reaches zero.
package wbc
