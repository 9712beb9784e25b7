package device

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	patternDriverName = "pattern"

	// Exposure and gain at which the pattern background is mid gray
	referenceExposureUS = 50000
	referenceGain       = 80
)

// PatternOptions configures the synthetic source
type PatternOptions struct {
	Width    int
	Height   int
	Count    int           // number of devices listed
	Interval time.Duration // delay between frames
}

// PatternDriver produces synthetic frames. Exposure and gain change
// brightness so control changes are visible without hardware.
type PatternDriver struct {
	opts   PatternOptions
	logger logrus.FieldLogger
}

// NewPatternDriver creates a pattern driver, filling zero options with defaults
func NewPatternDriver(opts PatternOptions, logger logrus.FieldLogger) *PatternDriver {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 960
	}
	if opts.Count <= 0 {
		opts.Count = 1
	}
	if opts.Interval < 0 {
		opts.Interval = 0
	}
	return &PatternDriver{opts: opts, logger: logger}
}

func (d *PatternDriver) Name() string { return patternDriverName }

func (d *PatternDriver) List() ([]Info, error) {
	infos := make([]Info, 0, d.opts.Count)
	for i := 0; i < d.opts.Count; i++ {
		infos = append(infos, d.info(i))
	}
	return infos, nil
}

func (d *PatternDriver) Open(index int) (Device, error) {
	if index < 0 || index >= d.opts.Count {
		return nil, fmt.Errorf("%w: pattern %d", ErrUnknownDevice, index)
	}

	p := &pattern{
		info:     d.info(index),
		exposure: referenceExposureUS,
		gain:     referenceGain,
	}
	p.streamer = streamer{
		grab:     p.grab,
		interval: d.opts.Interval,
		logger:   d.logger.WithField("device", p.info.ID()),
	}
	return p, nil
}

func (d *PatternDriver) info(index int) Info {
	return Info{
		Driver: patternDriverName,
		Index:  index,
		Name:   fmt.Sprintf("Test pattern %d", index),
		Width:  d.opts.Width,
		Height: d.opts.Height,
	}
}

// PatternLevel returns the background gray level for the given exposure and gain
func PatternLevel(exposureUS, gain int) uint8 {
	level := 128 * float64(exposureUS) / referenceExposureUS
	level *= 1 + float64(gain-referenceGain)/100
	return uint8(min(max(level, 0), 255))
}

type pattern struct {
	streamer

	info Info

	mu       sync.Mutex
	exposure int
	gain     int
	frameNo  int
}

func (p *pattern) Info() Info { return p.info }

func (p *pattern) Configure(ctrl Control, value int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ctrl {
	case Exposure:
		p.exposure = value
	case Gain:
		p.gain = value
	case Format:
		if value != FormatColor {
			return fmt.Errorf("%w: %s=%d", ErrUnsupportedControl, ctrl, value)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedControl, ctrl)
	}
	return nil
}

// grab renders a gray background, a grid, a red top-left marker and a
// vertical bar that moves one step per frame
func (p *pattern) grab(dst *gocv.Mat) error {
	p.mu.Lock()
	level := PatternLevel(p.exposure, p.gain)
	frameNo := p.frameNo
	p.frameNo++
	p.mu.Unlock()

	w, h := p.info.Width, p.info.Height
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(level), float64(level), float64(level), 0), h, w, gocv.MatTypeCV8UC3)
	defer frame.Close()

	grid := color.RGBA{R: 255 - level, G: 255 - level, B: 255 - level}
	for x := 0; x < w; x += 64 {
		gocv.Line(&frame, image.Pt(x, 0), image.Pt(x, h-1), grid, 1)
	}
	for y := 0; y < h; y += 64 {
		gocv.Line(&frame, image.Pt(0, y), image.Pt(w-1, y), grid, 1)
	}

	gocv.Rectangle(&frame, image.Rect(16, 16, 48, 48), color.RGBA{R: 255}, -1)

	barX := (frameNo * 8) % max(w, 1)
	gocv.Rectangle(&frame, image.Rect(barX, 0, barX+16, h), color.RGBA{R: 255, G: 255, B: 255}, -1)

	frame.CopyTo(dst)
	return nil
}

func (p *pattern) Close() error {
	return p.StopStream()
}
