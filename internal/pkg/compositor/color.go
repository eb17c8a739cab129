package compositor

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor accepts #RGB and #RRGGBB.
func ParseColor(s string) (color.Color, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: color %q", entity.ErrInvalidStyle, s)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
