package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	good = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	bad = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))
)

type field struct {
	name  string
	value string
}

// card renders a titled panel of aligned name/value lines.
func card(heading string, fields []field) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.name))
	}
	lines := []string{title.Render(heading)}
	for _, f := range fields {
		lines = append(lines, label.Render(fmt.Sprintf("%-*s", width, f.name))+"  "+value.Render(f.value))
	}
	return panel.Render(strings.Join(lines, "\n"))
}

func status(ok bool, text string) string {
	if ok {
		return good.Render(text)
	}
	return bad.Render(text)
}
