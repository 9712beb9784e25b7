// Region orientation: mirror then rotate, without touching the source image
package algorithms

import (
	"gocv.io/x/gocv"
)

// Orientation is the per-region transform applied before display or save
type Orientation struct {
	Rotation int // clockwise degrees
	MirrorH  bool
	MirrorV  bool
}

// Identity reports whether o leaves an image unchanged
func (o Orientation) Identity() bool {
	return !o.MirrorH && !o.MirrorV && rotateFlag(o.Rotation) < 0
}

// flip codes as understood by cv::flip
const (
	flipVertical   = 0
	flipHorizontal = 1
	flipBoth       = -1
)

// ApplyOrientation returns a new Mat holding src mirrored and then rotated by o.
// Both mirrors together are a single point reflection. Rotations other than
// 90, 180 and 270 are ignored. The caller owns the result.
func ApplyOrientation(src gocv.Mat, o Orientation) gocv.Mat {
	result := src.Clone()

	if code, ok := flipCode(o); ok {
		flipped := gocv.NewMat()
		gocv.Flip(result, &flipped, code)
		result.Close()
		result = flipped
	}

	if flag := rotateFlag(o.Rotation); flag >= 0 {
		rotated := gocv.NewMat()
		gocv.Rotate(result, &rotated, flag)
		result.Close()
		result = rotated
	}

	return result
}

func flipCode(o Orientation) (int, bool) {
	switch {
	case o.MirrorH && o.MirrorV:
		return flipBoth, true
	case o.MirrorH:
		return flipHorizontal, true
	case o.MirrorV:
		return flipVertical, true
	}
	return 0, false
}

func rotateFlag(rotation int) gocv.RotateFlag {
	switch rotation {
	case 90:
		return gocv.Rotate90Clockwise
	case 180:
		return gocv.Rotate180Clockwise
	case 270:
		return gocv.Rotate90CounterClockwise
	}
	return -1
}
