// Package metrics summarizes a walking run. Every metric observes the
// plant state and the applied control once per control tick.
package metrics
