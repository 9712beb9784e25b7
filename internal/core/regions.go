// ROI (Region of Interest) geometry and bounds management
package core

import (
	"image"
	"image/color"
)

// MinSize is the smallest width or height a region may have, in sensor pixels
const MinSize = 50

// ROICount is the number of regions tracked by a session
const ROICount = 2

// Rect is an axis-aligned rectangle in sensor-pixel coordinates
type Rect struct {
	X, Y          int
	Width, Height int
}

// NewRect creates a rectangle from origin and size
func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p image.Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// BottomRight returns the resize corner of r
func (r Rect) BottomRight() image.Point {
	return image.Pt(r.X+r.Width, r.Y+r.Height)
}

// Bounds converts r to an image.Rectangle
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Within reports whether r lies fully inside [0,maxW) x [0,maxH) and respects MinSize
func (r Rect) Within(maxW, maxH int) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.X+r.Width <= maxW && r.Y+r.Height <= maxH &&
		r.Width >= MinSize && r.Height >= MinSize
}

// Clamp keeps r inside the sensor bounds and above MinSize.
// Position is clamped before size so a region dragged past an edge shrinks instead of moving.
func Clamp(r Rect, maxW, maxH int) Rect {
	r.X = max(0, min(r.X, maxW-MinSize))
	r.Y = max(0, min(r.Y, maxH-MinSize))
	r.Width = min(r.Width, maxW-r.X)
	r.Height = min(r.Height, maxH-r.Y)
	r.Width = max(MinSize, r.Width)
	r.Height = max(MinSize, r.Height)
	return r
}

// ROI is one tracked region with its own orientation
type ROI struct {
	Rect     Rect
	Rotation int // clockwise degrees: 0, 90, 180 or 270
	MirrorH  bool
	MirrorV  bool
	Color    color.RGBA
}

// Name returns the 1-based display name of the region at index i
func Name(i int) string {
	switch i {
	case 0:
		return "ROI 1"
	case 1:
		return "ROI 2"
	}
	return "ROI ?"
}

var roiColors = [ROICount]color.RGBA{
	{R: 0, G: 255, B: 0, A: 255},
	{R: 255, G: 165, B: 0, A: 255},
}

// ColorFor returns the fixed overlay color for the region at index i
func ColorFor(i int) color.RGBA {
	if i < 0 || i >= ROICount {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return roiColors[i]
}

// DefaultROIs lays out the two startup regions for a sensor of the given size:
// third-size boxes, the first near the top-left and the second starting at mid-width.
func DefaultROIs(sensor image.Point) [ROICount]ROI {
	w, h := sensor.X/3, sensor.Y/3
	return [ROICount]ROI{
		{Rect: NewRect(100, 100, w, h), Color: ColorFor(0)},
		{Rect: NewRect(sensor.X/2, 100, w, h), Color: ColorFor(1)},
	}
}
