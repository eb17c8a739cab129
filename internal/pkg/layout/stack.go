package layout

// Placement is the edge a banner is attached to.
type Placement int

const (
	Top Placement = iota
	Bottom
)

// Line is a wrapped line with its vertical anchor. For Top the anchor is the
// top of the line, for Bottom it is the bottom of the line.
type Line struct {
	Text string
	Y    float64
}

// Stack positions lines with a pitch of lineHeight. A top banner starts at the
// top margin and grows downward; a bottom banner ends at the bottom margin, so
// its last line sits on the margin and earlier lines stack upward.
func Stack(lines []string, placement Placement, surfaceHeight, lineHeight, margin float64) []Line {
	out := make([]Line, len(lines))
	n := len(lines)
	for i, text := range lines {
		var y float64
		switch placement {
		case Bottom:
			y = surfaceHeight - margin - float64(n-1-i)*lineHeight
		default:
			y = margin + float64(i)*lineHeight
		}
		out[i] = Line{Text: text, Y: y}
	}
	return out
}

// BlockHeight is the total height of n stacked lines.
func BlockHeight(n int, lineHeight float64) float64 {
	return float64(n) * lineHeight
}
