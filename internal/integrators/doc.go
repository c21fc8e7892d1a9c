// Package integrators steps continuous-time systems x = [q; v] forward in
// time. Steppers keep scratch buffers between calls, so one instance must
// not be shared between goroutines.
package integrators
