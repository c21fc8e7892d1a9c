package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/stride/internal/horizon"
)

func TestGaitTimelineSVG(t *testing.T) {
	times := []float64{0, 0.1, 0.2, 0.3, 0.4}
	phases := []horizon.Support{
		horizon.DoubleSupport, horizon.SingleSupportLeft, horizon.SingleSupportLeft, horizon.DoubleSupport,
	}
	svg := GaitTimelineSVG(times, phases, 440)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %q", svg)
	}
	// The left foot stays down; the right foot has stance, swing, stance.
	if got := strings.Count(svg, stanceColor); got != 3 {
		t.Errorf("expected 3 stance bars, got %d", got)
	}
	if got := strings.Count(svg, swingColor); got != 1 {
		t.Errorf("expected 1 swing bar, got %d", got)
	}
}

func TestGaitTimelineSVGNeedsData(t *testing.T) {
	if GaitTimelineSVG(nil, nil, 100) != "" {
		t.Error("expected empty output without phases")
	}
	if GaitTimelineSVG([]float64{0}, []horizon.Support{horizon.DoubleSupport}, 100) != "" {
		t.Error("expected empty output without an end time")
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	svg := TrajectoryToSVG([]Point{{0, 0.8}, {0.1, 0.79}, {0.2, 0.8}}, 200, 100, "#ff0000")
	if !strings.Contains(svg, `stroke="#ff0000"`) || strings.Count(svg, " L") != 2 {
		t.Errorf("unexpected path: %s", svg)
	}
	if TrajectoryToSVG([]Point{{0, 0}}, 10, 10, "#fff") != "" {
		t.Error("expected empty output for a single point")
	}
}

func TestWritePNG(t *testing.T) {
	times := []float64{0, 0.01, 0.02}
	p, err := TracePlot("base", "height (m)", times, []Series{{Name: "z", Values: []float64{0.8, 0.79, 0.8}}})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, p, 4, 3); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a png")
	}
}

func TestTracePlotRejectsMismatchedSeries(t *testing.T) {
	if _, err := TracePlot("x", "y", []float64{0, 1}, []Series{{Name: "a", Values: []float64{1}}}); err == nil {
		t.Error("expected an error")
	}
	if _, err := TracePlot("x", "y", nil, nil); err == nil {
		t.Error("expected an error without data")
	}
}
