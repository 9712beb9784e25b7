// Frame validation and region extraction
package algorithms

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var (
	ErrEmptyImage     = errors.New("image is empty")
	ErrRegionOutside  = errors.New("region outside image")
	ErrUnsupportedMat = errors.New("unsupported image layout")
)

// MaxFrameSide bounds the width and height of a usable frame
const MaxFrameSide = 16384

// ValidateImage checks that a frame can be cropped and shown: 8-bit with 1, 3
// or 4 channels and no side longer than MaxFrameSide
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return ErrEmptyImage
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return fmt.Errorf("%w: type %v", ErrUnsupportedMat, mat.Type())
	}

	if w, h := mat.Cols(), mat.Rows(); w > MaxFrameSide || h > MaxFrameSide {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrUnsupportedMat, w, h, MaxFrameSide)
	}
	return nil
}

// ExtractRegion copies the pixels of rect out of frame. The region must lie inside the frame.
// The returned Mat owns its data and must be closed by the caller.
func ExtractRegion(frame gocv.Mat, rect image.Rectangle) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), ErrEmptyImage
	}
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	if rect.Empty() || !rect.In(bounds) {
		return gocv.NewMat(), fmt.Errorf("%w: %v not in %v", ErrRegionOutside, rect, bounds)
	}

	view := frame.Region(rect)
	defer view.Close()
	return view.Clone(), nil
}

// Extract copies rect out of frame and applies o to it
func Extract(frame gocv.Mat, rect image.Rectangle, o Orientation) (gocv.Mat, error) {
	crop, err := ExtractRegion(frame, rect)
	if err != nil {
		return crop, err
	}
	if o.Identity() {
		return crop, nil
	}
	defer crop.Close()
	return ApplyOrientation(crop, o), nil
}
