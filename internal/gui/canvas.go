// Drawing surface abstraction used by the panel and the main-view overlay
package gui

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Anchor selects how a text position is interpreted
type Anchor int

const (
	// AnchorBaseline places the left end of the text baseline at the point
	AnchorBaseline Anchor = iota
	// AnchorCenter centers the text box on the point
	AnchorCenter
)

// TextStyle describes how text is rendered
type TextStyle struct {
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// Canvas is a 2D drawing surface. Coordinates are surface pixels.
type Canvas interface {
	Size() image.Point
	FillRect(r image.Rectangle, c color.RGBA)
	StrokeRect(r image.Rectangle, c color.RGBA, thickness int)
	Line(from, to image.Point, c color.RGBA, thickness int)
	Text(s string, at image.Point, anchor Anchor, style TextStyle)
	TextSize(s string, style TextStyle) image.Point
}

const textFont = gocv.FontHersheySimplex

// MatCanvas draws into a gocv Mat with antialiased Hershey text
type MatCanvas struct {
	mat *gocv.Mat
}

// NewMatCanvas wraps mat; the canvas does not own it
func NewMatCanvas(mat *gocv.Mat) *MatCanvas {
	return &MatCanvas{mat: mat}
}

func (c *MatCanvas) Size() image.Point {
	return image.Pt(c.mat.Cols(), c.mat.Rows())
}

func (c *MatCanvas) FillRect(r image.Rectangle, col color.RGBA) {
	gocv.Rectangle(c.mat, r, col, -1)
}

func (c *MatCanvas) StrokeRect(r image.Rectangle, col color.RGBA, thickness int) {
	gocv.Rectangle(c.mat, r, col, max(thickness, 1))
}

func (c *MatCanvas) Line(from, to image.Point, col color.RGBA, thickness int) {
	gocv.Line(c.mat, from, to, col, max(thickness, 1))
}

func (c *MatCanvas) Text(s string, at image.Point, anchor Anchor, style TextStyle) {
	org := at
	if anchor == AnchorCenter {
		size := c.TextSize(s, style)
		org = image.Pt(at.X-size.X/2, at.Y+size.Y/2)
	}
	gocv.PutTextWithParams(c.mat, s, org, textFont, style.Scale, style.Color, max(style.Thickness, 1), gocv.LineAA, false)
}

func (c *MatCanvas) TextSize(s string, style TextStyle) image.Point {
	return gocv.GetTextSize(s, textFont, style.Scale, max(style.Thickness, 1))
}

func gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
