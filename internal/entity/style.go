package entity

const (
	DefaultFontColor   = "#FFFFFF"
	DefaultStrokeColor = "#000000"
	DefaultFontScale   = 50
	DefaultFontFamily  = "Impact"
	DefaultFilter      = "none"
)

// TextStyle is replaced wholesale on every update.
type TextStyle struct {
	FontColor   string  `json:"font_color" binding:"required"`
	StrokeColor string  `json:"stroke_color" binding:"required"`
	FontScale   float64 `json:"font_scale" binding:"required,gt=0,lte=200"`
	FontFamily  string  `json:"font_family" binding:"required"`
	Filter      string  `json:"filter" binding:"required"`
}

func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontColor:   DefaultFontColor,
		StrokeColor: DefaultStrokeColor,
		FontScale:   DefaultFontScale,
		FontFamily:  DefaultFontFamily,
		Filter:      DefaultFilter,
	}
}

// Mode selects the text placement variant of a session.
type Mode string

const (
	ModeFree   Mode = "free"
	ModeBanner Mode = "banner"
)

func (m Mode) Valid() bool {
	return m == ModeFree || m == ModeBanner
}

// Point is a canvas-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box in canvas space.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// ContainsStrict reports whether p lies strictly inside r.
func (r Rect) ContainsStrict(p Point) bool {
	return p.X > r.Left && p.X < r.Right && p.Y > r.Top && p.Y < r.Bottom
}
