// Package layout computes where banner text goes: greedy word wrap, vertical
// stacking against the top or bottom margin, and per-line rotation jitter.
package layout

import "strings"

// Measurer reports the rendered width of a string in pixels.
type Measurer interface {
	MeasureString(s string) float64
}

// Wrap breaks text into lines no wider than maxWidth. Words are never split, so
// a word that is wider than maxWidth on its own ends up alone on its line.
// Explicit newlines start a new paragraph; empty paragraphs are dropped.
func Wrap(text string, maxWidth float64, m Measurer) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(paragraph, maxWidth, m)...)
	}
	return lines
}

func wrapParagraph(paragraph string, maxWidth float64, m Measurer) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(paragraph) {
		if line == "" {
			line = word
			continue
		}
		candidate := line + " " + word
		if m.MeasureString(candidate) <= maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
