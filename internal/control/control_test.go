package control

import (
	"testing"

	"github.com/san-kum/stride/internal/dynamo"
)

func TestPosture(t *testing.T) {
	// nq = 3, joints 1 and 2 actuated
	ctrl := NewPosture(3, []int{1, 2}, []float64{0, 0.5, -0.5}, 10, 2)
	x := dynamo.State{7, 0.5, 0, 0, 1, -1}

	u := ctrl.Compute(x, 0)
	if len(u) != 2 {
		t.Fatalf("expected 2 controls, got %d", len(u))
	}
	if u[0] != -2 {
		t.Errorf("u[0] = %v, want -2 (no position error, damping only)", u[0])
	}
	if u[1] != -5+2 {
		t.Errorf("u[1] = %v, want -3", u[1])
	}

	ctrl.Uff = []float64{1, 1}
	if u := ctrl.Compute(x, 0); u[0] != -1 {
		t.Errorf("feedforward not applied: %v", u)
	}
}

func TestPostureParams(t *testing.T) {
	ctrl := NewPosture(1, []int{0}, []float64{0}, 1, 1)
	ctrl.SetParam("Kp", 50)
	ctrl.SetParam("unknown", 3)
	params := ctrl.GetParams()
	if params["Kp"] != 50 || params["Kd"] != 1 {
		t.Errorf("params = %v", params)
	}
}

func TestHold(t *testing.T) {
	h := NewHold(2)
	if u := h.Compute(nil, 0); u[0] != 0 || u[1] != 0 {
		t.Errorf("initial hold = %v", u)
	}
	if h.Set(dynamo.Control{1}) {
		t.Error("short control accepted")
	}
	h.Set(dynamo.Control{3, 4})
	u := h.Compute(nil, 1)
	u[0] = 99
	if got := h.Compute(nil, 2); got[0] != 3 || got[1] != 4 {
		t.Errorf("held control = %v", got)
	}
}
