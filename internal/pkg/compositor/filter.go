package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/memeditor/internal/entity"
)

// Filter is one whole-image filter function, e.g. grayscale(100%).
// Amount is a fraction for the colour filters and pixels for blur.
type Filter struct {
	Name   string
	Amount float64
}

const (
	MaxBlurRadius   = 100
	MaxFilterAmount = 100
)

var filterDefaults = map[string]float64{
	"grayscale":  1,
	"sepia":      1,
	"invert":     1,
	"blur":       0,
	"brightness": 1,
	"contrast":   1,
	"saturate":   1,
}

// ParseFilter parses a CSS-style filter list such as
// "grayscale(100%) blur(2px)". "none" and "" yield no filters.
func ParseFilter(s string) ([]Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}

	var filters []Filter
	for _, token := range splitFilterList(s) {
		f, err := parseFilterFunc(token)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func splitFilterList(s string) []string {
	var tokens []string
	depth, start := 0, -1
	for i, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ' ' && depth == 0:
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func parseFilterFunc(token string) (Filter, error) {
	name, arg := token, ""
	if open := strings.IndexByte(token, '('); open >= 0 {
		if !strings.HasSuffix(token, ")") {
			return Filter{}, fmt.Errorf("%w: filter %q", entity.ErrInvalidStyle, token)
		}
		name, arg = token[:open], strings.TrimSpace(token[open+1:len(token)-1])
	}
	name = strings.ToLower(strings.TrimSpace(name))

	def, ok := filterDefaults[name]
	if !ok {
		return Filter{}, fmt.Errorf("%w: unknown filter %q", entity.ErrInvalidStyle, name)
	}
	if arg == "" {
		return Filter{Name: name, Amount: def}, nil
	}

	amount, err := parseAmount(name, arg)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return Filter{}, fmt.Errorf("%w: filter %q", entity.ErrInvalidStyle, token)
	}
	if name == "blur" && amount > MaxBlurRadius {
		return Filter{}, fmt.Errorf("%w: blur radius %v exceeds %vpx", entity.ErrInvalidStyle, amount, MaxBlurRadius)
	}
	if amount > MaxFilterAmount {
		return Filter{}, fmt.Errorf("%w: filter %q", entity.ErrInvalidStyle, token)
	}
	switch name {
	case "grayscale", "sepia", "invert":
		amount = math.Min(amount, 1)
	}
	return Filter{Name: name, Amount: amount}, nil
}

func parseAmount(name, arg string) (float64, error) {
	if name == "blur" {
		return strconv.ParseFloat(strings.TrimSuffix(arg, "px"), 64)
	}
	if strings.HasSuffix(arg, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
		return v / 100, err
	}
	return strconv.ParseFloat(arg, 64)
}

// ApplyFilters runs filters over img in order and returns a new image.
func ApplyFilters(img image.Image, filters []Filter) image.Image {
	for _, f := range filters {
		img = applyFilter(img, f)
	}
	return img
}

func applyFilter(img image.Image, f Filter) image.Image {
	a := f.Amount
	switch f.Name {
	case "grayscale":
		if a == 1 {
			return imaging.Grayscale(img)
		}
		return applyMatrix(img, grayscaleMatrix(a))
	case "sepia":
		return applyMatrix(img, sepiaMatrix(a))
	case "invert":
		if a == 1 {
			return imaging.Invert(img)
		}
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.R = clamp8(lerp(float64(c.R), 255-float64(c.R), a))
			c.G = clamp8(lerp(float64(c.G), 255-float64(c.G), a))
			c.B = clamp8(lerp(float64(c.B), 255-float64(c.B), a))
			return c
		})
	case "blur":
		if a <= 0 {
			return img
		}
		return imaging.Blur(img, a)
	case "brightness":
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.R = clamp8(float64(c.R) * a)
			c.G = clamp8(float64(c.G) * a)
			c.B = clamp8(float64(c.B) * a)
			return c
		})
	case "contrast":
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.R = clamp8((float64(c.R)-127.5)*a + 127.5)
			c.G = clamp8((float64(c.G)-127.5)*a + 127.5)
			c.B = clamp8((float64(c.B)-127.5)*a + 127.5)
			return c
		})
	case "saturate":
		return applyMatrix(img, saturateMatrix(a))
	}
	return img
}

type colorMatrix [3][3]float64

func grayscaleMatrix(a float64) colorMatrix {
	s := 1 - a
	return colorMatrix{
		{0.2126 + 0.7874*s, 0.7152 - 0.7152*s, 0.0722 - 0.0722*s},
		{0.2126 - 0.2126*s, 0.7152 + 0.2848*s, 0.0722 - 0.0722*s},
		{0.2126 - 0.2126*s, 0.7152 - 0.7152*s, 0.0722 + 0.9278*s},
	}
}

func sepiaMatrix(a float64) colorMatrix {
	s := 1 - a
	return colorMatrix{
		{0.393 + 0.607*s, 0.769 - 0.769*s, 0.189 - 0.189*s},
		{0.349 - 0.349*s, 0.686 + 0.314*s, 0.168 - 0.168*s},
		{0.272 - 0.272*s, 0.534 - 0.534*s, 0.131 + 0.869*s},
	}
}

func saturateMatrix(a float64) colorMatrix {
	return colorMatrix{
		{0.213 + 0.787*a, 0.715 - 0.715*a, 0.072 - 0.072*a},
		{0.213 - 0.213*a, 0.715 + 0.285*a, 0.072 - 0.072*a},
		{0.213 - 0.213*a, 0.715 - 0.715*a, 0.072 + 0.928*a},
	}
}

func applyMatrix(img image.Image, m colorMatrix) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		c.R = clamp8(m[0][0]*r + m[0][1]*g + m[0][2]*b)
		c.G = clamp8(m[1][0]*r + m[1][1]*g + m[1][2]*b)
		c.B = clamp8(m[2][0]*r + m[2][1]*g + m[2][2]*b)
		return c
	})
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
