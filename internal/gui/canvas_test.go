package gui

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

type drawOp struct {
	kind      string
	rect      image.Rectangle
	from, to  image.Point
	text      string
	anchor    Anchor
	color     color.RGBA
	thickness int
}

// recordingCanvas records draw calls instead of rasterizing them
type recordingCanvas struct {
	size image.Point
	ops  []drawOp
}

func newRecordingCanvas(w, h int) *recordingCanvas {
	return &recordingCanvas{size: image.Pt(w, h)}
}

func (r *recordingCanvas) Size() image.Point { return r.size }

func (r *recordingCanvas) FillRect(rect image.Rectangle, c color.RGBA) {
	r.ops = append(r.ops, drawOp{kind: "fill", rect: rect, color: c})
}

func (r *recordingCanvas) StrokeRect(rect image.Rectangle, c color.RGBA, thickness int) {
	r.ops = append(r.ops, drawOp{kind: "stroke", rect: rect, color: c, thickness: thickness})
}

func (r *recordingCanvas) Line(from, to image.Point, c color.RGBA, thickness int) {
	r.ops = append(r.ops, drawOp{kind: "line", from: from, to: to, color: c, thickness: thickness})
}

func (r *recordingCanvas) Text(s string, at image.Point, anchor Anchor, style TextStyle) {
	r.ops = append(r.ops, drawOp{kind: "text", text: s, from: at, anchor: anchor, color: style.Color, thickness: style.Thickness})
}

func (r *recordingCanvas) TextSize(s string, style TextStyle) image.Point {
	return image.Pt(len(s)*8, 12)
}

func (r *recordingCanvas) count(kind string) int {
	n := 0
	for _, op := range r.ops {
		if op.kind == kind {
			n++
		}
	}
	return n
}

func (r *recordingCanvas) text(s string) (drawOp, bool) {
	for _, op := range r.ops {
		if op.kind == "text" && op.text == s {
			return op, true
		}
	}
	return drawOp{}, false
}

func TestMatCanvas_DrawsInBGR(t *testing.T) {
	mat := gocv.NewMatWithSize(20, 30, gocv.MatTypeCV8UC3)
	defer mat.Close()

	c := NewMatCanvas(&mat)
	assert.Equal(t, image.Pt(30, 20), c.Size())

	c.FillRect(image.Rect(0, 0, 30, 20), color.RGBA{R: 255, A: 255})
	px := mat.GetVecbAt(10, 15)
	assert.Equal(t, []uint8{0, 0, 255}, []uint8{px[0], px[1], px[2]})
}

func TestMatCanvas_TextSize(t *testing.T) {
	mat := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer mat.Close()

	c := NewMatCanvas(&mat)
	small := c.TextSize("Save", TextStyle{Scale: 0.4})
	large := c.TextSize("Save", TextStyle{Scale: 0.8})
	assert.Positive(t, small.X)
	assert.Greater(t, large.X, small.X)
	assert.Greater(t, c.TextSize("Rotate CCW", TextStyle{Scale: 0.4}).X, small.X)
}
