package metrics

import (
	"errors"

	"gocv.io/x/gocv"
)

// Registered metric names
const (
	NameSharpness  = "sharpness"
	NameBrightness = "brightness"
)

var errEmptyImage = errors.New("empty image")

// Sharpness implements the variance-of-Laplacian focus measure
type Sharpness struct{}

// NewSharpness creates a new sharpness metric
func NewSharpness() *Sharpness {
	return &Sharpness{}
}

func (s *Sharpness) Calculate(img gocv.Mat) (float64, error) {
	if img.Empty() {
		return 0, errEmptyImage
	}

	gray := ensureGrayscale(img)
	defer func() {
		if gray.Ptr() != img.Ptr() {
			gray.Close()
		}
	}()

	// Apply Laplacian to detect edges
	laplacian := gocv.NewMat()
	defer laplacian.Close()
	gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stddev := gocv.NewMat()
	defer stddev.Close()
	gocv.MeanStdDev(laplacian, &mean, &stddev)

	sd := stddev.GetDoubleAt(0, 0)
	return sd * sd, nil
}

// Brightness implements the mean gray level of an image
type Brightness struct{}

// NewBrightness creates a new brightness metric
func NewBrightness() *Brightness {
	return &Brightness{}
}

func (b *Brightness) Calculate(img gocv.Mat) (float64, error) {
	if img.Empty() {
		return 0, errEmptyImage
	}

	gray := ensureGrayscale(img)
	defer func() {
		if gray.Ptr() != img.Ptr() {
			gray.Close()
		}
	}()

	return gray.Mean().Val1, nil
}

func ensureGrayscale(input gocv.Mat) gocv.Mat {
	if input.Channels() == 1 {
		return input
	}

	gray := gocv.NewMat()
	gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	return gray
}
