// Package export renders walking runs: the gait timeline and state paths
// as SVG, state traces as PNG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/stride/internal/horizon"
)

type Point struct{ X, Y float64 }

const (
	stanceColor = "#00cc66"
	swingColor  = "#1a1a1a"
)

// GaitTimelineSVG draws one row per foot over the run, filled while the
// foot is in contact. phases[i] holds from times[i] to times[i+1].
func GaitTimelineSVG(times []float64, phases []horizon.Support, width int) string {
	if len(phases) == 0 || len(times) < len(phases)+1 {
		return ""
	}

	const rowHeight, labelWidth = 24, 40
	height := 2*rowHeight + 30
	t0, t1 := times[0], times[len(phases)]
	span := t1 - t0
	if span <= 0 {
		span = 1
	}
	plotWidth := float64(width - labelWidth)
	xOf := func(t float64) float64 { return labelWidth + (t-t0)/span*plotWidth }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	rows := []struct {
		label   string
		contact func(horizon.Support) bool
	}{
		{"LF", horizon.Support.LeftInContact},
		{"RF", horizon.Support.RightInContact},
	}
	for r, row := range rows {
		y := 5 + r*(rowHeight+5)
		sb.WriteString(fmt.Sprintf(`<text x="4" y="%d" fill="#cccccc" font-family="monospace" font-size="12">%s</text>
`, y+rowHeight-8, row.label))

		// Merge runs of equal contact into one rectangle.
		start := 0
		for i := 1; i <= len(phases); i++ {
			if i < len(phases) && row.contact(phases[i]) == row.contact(phases[start]) {
				continue
			}
			color := swingColor
			if row.contact(phases[start]) {
				color = stanceColor
			}
			x0, x1 := xOf(times[start]), xOf(times[i])
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%d" width="%.1f" height="%d" fill="%s"/>
`, x0, y, x1-x0, rowHeight, color))
			start = i
		}
	}

	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#888888" font-family="monospace" font-size="11">%.2fs</text>
<text x="%d" y="%d" fill="#888888" font-family="monospace" font-size="11" text-anchor="end">%.2fs</text>
`, labelWidth, height-6, t0, width-2, height-6, t1))
	sb.WriteString("</svg>")
	return sb.String()
}

// TrajectoryToSVG creates an SVG path from trajectory data, e.g. the base
// height over the forward position.
func TrajectoryToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
