package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const cameraDriverName = "camera"

var errReadFailed = errors.New("camera read failed")

// CameraOptions configures the VideoCapture backed driver
type CameraOptions struct {
	// ProbeLimit is how many device indices List tries
	ProbeLimit int
	// Requested frame size; zero keeps the backend default
	Width  int
	Height int
}

// CameraDriver opens local cameras through OpenCV VideoCapture
type CameraDriver struct {
	opts   CameraOptions
	logger logrus.FieldLogger
}

// NewCameraDriver creates a camera driver
func NewCameraDriver(opts CameraOptions, logger logrus.FieldLogger) *CameraDriver {
	if opts.ProbeLimit <= 0 {
		opts.ProbeLimit = 4
	}
	return &CameraDriver{opts: opts, logger: logger}
}

func (d *CameraDriver) Name() string { return cameraDriverName }

// List probes indices 0..ProbeLimit-1 and returns the ones that open
func (d *CameraDriver) List() ([]Info, error) {
	var infos []Info
	for i := 0; i < d.opts.ProbeLimit; i++ {
		vc, err := gocv.VideoCaptureDevice(i)
		if err != nil {
			continue
		}
		if !vc.IsOpened() {
			vc.Close()
			continue
		}
		infos = append(infos, cameraInfo(vc, i))
		vc.Close()
	}
	return infos, nil
}

// Open opens camera index and applies the requested frame size
func (d *CameraDriver) Open(index int) (Device, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("%w: camera %d: %v", ErrUnknownDevice, index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: camera %d did not open", ErrUnknownDevice, index)
	}

	if d.opts.Width > 0 && d.opts.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(d.opts.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(d.opts.Height))
	}

	info := cameraInfo(vc, index)
	logger := d.logger.WithField("device", info.ID())
	cam := &camera{info: info, vc: vc}
	cam.streamer = streamer{grab: cam.grab, logger: logger}

	logger.WithFields(logrus.Fields{
		"width":  info.Width,
		"height": info.Height,
	}).Info("Camera opened")

	return cam, nil
}

func cameraInfo(vc *gocv.VideoCapture, index int) Info {
	return Info{
		Driver: cameraDriverName,
		Index:  index,
		Name:   fmt.Sprintf("Camera %d", index),
		Width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}
}

type camera struct {
	streamer

	info Info

	// VideoCapture is not safe for concurrent use; mu serializes grab and Set
	vcMu sync.Mutex
	vc   *gocv.VideoCapture
}

func (c *camera) Info() Info { return c.info }

// Configure maps controls onto VideoCapture properties. Exposure is given in
// microseconds and converted to the 100 µs steps V4L2 backends expect.
func (c *camera) Configure(ctrl Control, value int) error {
	var (
		prop  gocv.VideoCaptureProperties
		param float64
	)
	switch ctrl {
	case Exposure:
		prop, param = gocv.VideoCaptureExposure, float64(value)/100
	case Gain:
		prop, param = gocv.VideoCaptureGain, float64(value)
	case WhiteBalanceRed:
		prop, param = gocv.VideoCaptureWhiteBalanceRedV, float64(value)
	case WhiteBalanceBlue:
		prop, param = gocv.VideoCaptureWhiteBalanceBlueU, float64(value)
	case Format:
		if value != FormatColor {
			return fmt.Errorf("%w: %s=%d", ErrUnsupportedControl, ctrl, value)
		}
		prop, param = gocv.VideoCaptureConvertRGB, 1
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedControl, ctrl)
	}

	c.vcMu.Lock()
	defer c.vcMu.Unlock()
	if c.vc == nil {
		return ErrNotStreaming
	}
	c.vc.Set(prop, param)
	return nil
}

func (c *camera) grab(dst *gocv.Mat) error {
	c.vcMu.Lock()
	defer c.vcMu.Unlock()

	if c.vc == nil {
		return ErrNotStreaming
	}
	if ok := c.vc.Read(dst); !ok || dst.Empty() {
		return errReadFailed
	}
	return nil
}

func (c *camera) Close() error {
	stopErr := c.StopStream()

	c.vcMu.Lock()
	defer c.vcMu.Unlock()
	if c.vc == nil {
		return stopErr
	}
	closeErr := c.vc.Close()
	c.vc = nil
	return errors.Join(stopErr, closeErr)
}
