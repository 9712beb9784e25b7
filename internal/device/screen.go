package device

import (
	"fmt"
	"image"
	"time"

	"github.com/kbinani/screenshot"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const screenDriverName = "screen"

// ScreenDriver exposes each active display as a frame source
type ScreenDriver struct {
	interval time.Duration
	logger   logrus.FieldLogger
}

// NewScreenDriver creates a screen driver grabbing at most one frame per interval
func NewScreenDriver(interval time.Duration, logger logrus.FieldLogger) *ScreenDriver {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &ScreenDriver{interval: interval, logger: logger}
}

func (d *ScreenDriver) Name() string { return screenDriverName }

func (d *ScreenDriver) List() ([]Info, error) {
	n := screenshot.NumActiveDisplays()
	infos := make([]Info, 0, n)
	for i := 0; i < n; i++ {
		infos = append(infos, screenInfo(i, screenshot.GetDisplayBounds(i)))
	}
	return infos, nil
}

func (d *ScreenDriver) Open(index int) (Device, error) {
	if index < 0 || index >= screenshot.NumActiveDisplays() {
		return nil, fmt.Errorf("%w: display %d", ErrUnknownDevice, index)
	}

	bounds := screenshot.GetDisplayBounds(index)
	info := screenInfo(index, bounds)
	s := &screen{info: info, bounds: bounds}
	s.streamer = streamer{
		grab:     s.grab,
		interval: d.interval,
		logger:   d.logger.WithField("device", info.ID()),
	}
	return s, nil
}

func screenInfo(index int, bounds image.Rectangle) Info {
	return Info{
		Driver: screenDriverName,
		Index:  index,
		Name:   fmt.Sprintf("Display %d", index),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}

type screen struct {
	streamer

	info   Info
	bounds image.Rectangle
}

func (s *screen) Info() Info { return s.info }

// Configure accepts only the color format; screens have no sensor controls
func (s *screen) Configure(ctrl Control, value int) error {
	if ctrl == Format && value == FormatColor {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedControl, ctrl)
}

func (s *screen) grab(dst *gocv.Mat) error {
	img, err := screenshot.CaptureRect(s.bounds)
	if err != nil {
		return fmt.Errorf("capture display %d: %w", s.info.Index, err)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("convert display %d: %w", s.info.Index, err)
	}
	defer mat.Close()

	mat.CopyTo(dst)
	return nil
}

func (s *screen) Close() error {
	return s.StopStream()
}
