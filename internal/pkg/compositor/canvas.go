package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// VAlign is the vertical meaning of a text op's Y coordinate.
type VAlign int

const (
	AlignMiddle VAlign = iota
	AlignTop
	AlignBottom
)

// TextOp is one horizontally centred string drawn at (X, Y), rotated by
// Rotation radians around that point.
type TextOp struct {
	Text     string
	X        float64
	Y        float64
	VAlign   VAlign
	Rotation float64
}

// Canvas is the drawing surface the compositor renders into. Every render
// starts with Reset, which discards prior contents.
type Canvas interface {
	Reset(width, height int)
	DrawImage(img image.Image)
	SetFontFace(face font.Face)
	StrokeText(op TextOp, lineWidth float64, c color.Color)
	FillText(op TextOp, c color.Color)
	Image() image.Image
}

type ggCanvas struct {
	dc *gg.Context
}

// NewCanvas returns a Canvas backed by a gg context.
func NewCanvas() Canvas {
	return &ggCanvas{}
}

func (c *ggCanvas) Reset(width, height int) {
	c.dc = gg.NewContext(width, height)
}

func (c *ggCanvas) DrawImage(img image.Image) {
	b := img.Bounds()
	c.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
}

func (c *ggCanvas) SetFontFace(face font.Face) {
	c.dc.SetFontFace(face)
}

// StrokeText approximates a round-joined outline by stamping the text at
// every offset inside a disc of radius lineWidth/2.
func (c *ggCanvas) StrokeText(op TextOp, lineWidth float64, col color.Color) {
	radius := math.Max(lineWidth/2, 1)
	reach := int(math.Ceil(radius))

	c.dc.Push()
	defer c.dc.Pop()
	c.dc.RotateAbout(op.Rotation, op.X, op.Y)
	c.dc.SetColor(col)
	ay := anchorY(op.VAlign)
	for dy := -reach; dy <= reach; dy++ {
		for dx := -reach; dx <= reach; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if float64(dx*dx+dy*dy) > radius*radius {
				continue
			}
			c.dc.DrawStringAnchored(op.Text, op.X+float64(dx), op.Y+float64(dy), 0.5, ay)
		}
	}
}

func (c *ggCanvas) FillText(op TextOp, col color.Color) {
	c.dc.Push()
	defer c.dc.Pop()
	c.dc.RotateAbout(op.Rotation, op.X, op.Y)
	c.dc.SetColor(col)
	c.dc.DrawStringAnchored(op.Text, op.X, op.Y, 0.5, anchorY(op.VAlign))
}

func (c *ggCanvas) Image() image.Image {
	if c.dc == nil {
		return nil
	}
	return c.dc.Image()
}

// anchorY maps an alignment to gg's vertical anchor, where 0 puts the
// baseline on y and 1 puts the top of the line on y.
func anchorY(v VAlign) float64 {
	switch v {
	case AlignTop:
		return 1
	case AlignBottom:
		return 0
	}
	return 0.5
}
