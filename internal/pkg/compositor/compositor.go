// Package compositor draws a base image plus styled meme text onto a fresh
// surface. Each render fully overwrites the surface.
package compositor

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/layout"
)

type Config struct {
	// Free mode: fontSize = floor(width/FreeDivisor) * scale/FreeReference.
	FreeDivisor       float64
	FreeReference     float64
	FreeStrokeDivisor float64

	// Banner mode: fontSize = floor(width/BannerDivisor).
	BannerDivisor       float64
	BannerStrokeDivisor float64
	BannerMaxSize       int
	BannerMargin        float64
}

func DefaultConfig() Config {
	return Config{
		FreeDivisor:         10,
		FreeReference:       50,
		FreeStrokeDivisor:   15,
		BannerDivisor:       8,
		BannerStrokeDivisor: 5,
		BannerMaxSize:       500,
		BannerMargin:        10,
	}
}

// RenderParams carries everything one render needs. It is built once per
// render and not modified afterwards.
type RenderParams struct {
	Image  image.Image
	Mode   entity.Mode
	Style  entity.TextStyle
	Texts  entity.Texts
	Anchor entity.Point
	// Rotation returns the rotation of the next banner line; nil means none.
	Rotation func() float64
}

type Compositor struct {
	fonts     *Fonts
	cfg       Config
	newCanvas func() Canvas
}

type Option func(*Compositor)

// WithCanvas replaces the gg-backed canvas factory.
func WithCanvas(factory func() Canvas) Option {
	return func(c *Compositor) { c.newCanvas = factory }
}

func New(fonts *Fonts, cfg Config, opts ...Option) *Compositor {
	c := &Compositor{
		fonts:     fonts,
		cfg:       cfg,
		newCanvas: NewCanvas,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Compositor) Fonts() *Fonts {
	return c.fonts
}

// MaxFontScale matches the upper bound the API accepts.
const MaxFontScale = 200

// ValidateStyle checks colours and the filter without rendering.
func ValidateStyle(style entity.TextStyle) error {
	if _, err := ParseColor(style.FontColor); err != nil {
		return err
	}
	if _, err := ParseColor(style.StrokeColor); err != nil {
		return err
	}
	if math.IsNaN(style.FontScale) || style.FontScale <= 0 || style.FontScale > MaxFontScale {
		return fmt.Errorf("%w: font scale %v", entity.ErrInvalidStyle, style.FontScale)
	}
	_, err := ParseFilter(style.Filter)
	return err
}

// SurfaceSize is the surface a render of img produces: the image size in
// free mode, the image fitted inside BannerMaxSize in banner mode.
func (c *Compositor) SurfaceSize(img image.Image, mode entity.Mode) (int, int) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if mode != entity.ModeBanner {
		return w, h
	}
	limit := c.cfg.BannerMaxSize
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	ratio := math.Min(float64(limit)/float64(w), float64(limit)/float64(h))
	fw := int(math.Round(float64(w) * ratio))
	fh := int(math.Round(float64(h) * ratio))
	return max(fw, 1), max(fh, 1)
}

func (c *Compositor) FontSize(mode entity.Mode, surfaceWidth int, scale float64) float64 {
	if mode == entity.ModeBanner {
		return math.Floor(float64(surfaceWidth) / c.cfg.BannerDivisor)
	}
	return math.Floor(float64(surfaceWidth)/c.cfg.FreeDivisor) * (scale / c.cfg.FreeReference)
}

// StrokeWidth follows the canvas rule that a zero line width is ignored and
// the default of 1 stays in effect.
func (c *Compositor) StrokeWidth(mode entity.Mode, fontSize float64) float64 {
	divisor := c.cfg.FreeStrokeDivisor
	if mode == entity.ModeBanner {
		divisor = c.cfg.BannerStrokeDivisor
	}
	return math.Max(math.Floor(fontSize/divisor), 1)
}

// Render composites p into a new surface. Without an image it draws nothing
// and returns a nil surface.
func (c *Compositor) Render(p RenderParams) (image.Image, error) {
	if p.Image == nil {
		return nil, nil
	}

	fill, err := ParseColor(p.Style.FontColor)
	if err != nil {
		return nil, err
	}
	stroke, err := ParseColor(p.Style.StrokeColor)
	if err != nil {
		return nil, err
	}
	filters, err := ParseFilter(p.Style.Filter)
	if err != nil {
		return nil, err
	}

	w, h := c.SurfaceSize(p.Image, p.Mode)
	base := p.Image
	if b := base.Bounds(); b.Dx() != w || b.Dy() != h {
		base = imaging.Resize(base, w, h, imaging.Lanczos)
	}

	canvas := c.newCanvas()
	canvas.Reset(w, h)
	// the filter touches only the base image, text is drawn unfiltered
	canvas.DrawImage(ApplyFilters(base, filters))

	fontSize := c.FontSize(p.Mode, w, p.Style.FontScale)
	if fontSize <= 0 {
		return canvas.Image(), nil
	}
	face := c.fonts.Face(p.Style.FontFamily, fontSize)
	canvas.SetFontFace(face)

	var ops []TextOp
	if p.Mode == entity.ModeBanner {
		ops = c.bannerOps(p, faceMeasurer{face: face}, w, h, fontSize)
	} else if p.Texts.Text != "" {
		ops = []TextOp{{Text: p.Texts.Text, X: p.Anchor.X, Y: p.Anchor.Y, VAlign: AlignMiddle}}
	}

	lineWidth := c.StrokeWidth(p.Mode, fontSize)
	for _, op := range ops {
		canvas.StrokeText(op, lineWidth, stroke)
		canvas.FillText(op, fill)
	}
	return canvas.Image(), nil
}

func (c *Compositor) bannerOps(p RenderParams, m layout.Measurer, w, h int, fontSize float64) []TextOp {
	maxWidth := float64(w) - 2*c.cfg.BannerMargin
	banners := []struct {
		text      string
		placement layout.Placement
		align     VAlign
	}{
		{p.Texts.Top, layout.Top, AlignTop},
		{p.Texts.Bottom, layout.Bottom, AlignBottom},
	}

	var ops []TextOp
	for _, b := range banners {
		lines := layout.Wrap(b.text, maxWidth, m)
		for _, line := range layout.Stack(lines, b.placement, float64(h), fontSize, c.cfg.BannerMargin) {
			rotation := 0.0
			if p.Rotation != nil {
				rotation = p.Rotation()
			}
			ops = append(ops, TextOp{
				Text:     line.Text,
				X:        float64(w) / 2,
				Y:        line.Y,
				VAlign:   b.align,
				Rotation: rotation,
			})
		}
	}
	return ops
}

// TextBounds is the box of the free-mode text centred on the anchor, measured
// with the font size the current image and style produce. ok is false when
// there is no image or no text.
func (c *Compositor) TextBounds(img image.Image, style entity.TextStyle, text string, anchor entity.Point) (entity.Rect, bool) {
	if img == nil || text == "" {
		return entity.Rect{}, false
	}
	w, _ := c.SurfaceSize(img, entity.ModeFree)
	fontSize := c.FontSize(entity.ModeFree, w, style.FontScale)
	if fontSize <= 0 {
		return entity.Rect{}, false
	}
	width := faceMeasurer{face: c.fonts.Face(style.FontFamily, fontSize)}.MeasureString(text)
	height := fontSize

	return entity.Rect{
		Left:   anchor.X - width/2,
		Right:  anchor.X + width/2,
		Top:    anchor.Y - height/2,
		Bottom: anchor.Y + height/2,
	}, true
}

