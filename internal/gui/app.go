// Frame loop tying the device, the session and the windows together
package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"dual-roi-viewer/internal/algorithms"
	"dual-roi-viewer/internal/core"
	"dual-roi-viewer/internal/device"
	"dual-roi-viewer/internal/io"
	"dual-roi-viewer/internal/metrics"
)

// Window names
const (
	MainWindow     = "Main View"
	ControlsWindow = "Controls"
)

// Options tunes the frame loop
type Options struct {
	// DisplayScale is the main view size relative to the sensor
	DisplayScale  float64
	ROIWindowSize int
	ReadTimeout   time.Duration
	// PollInterval is how long each iteration waits for input
	PollInterval  time.Duration
	StatsInterval time.Duration
	ShowFocus     bool
}

// DefaultOptions returns the standard loop settings
func DefaultOptions() Options {
	return Options{
		DisplayScale:  0.5,
		ROIWindowSize: 400,
		ReadTimeout:   500 * time.Millisecond,
		PollInterval:  time.Millisecond,
		StatsInterval: 5 * time.Second,
		ShowFocus:     true,
	}
}

// Application owns the session, the device and the display for one run
type Application struct {
	device    device.Device
	display   Display
	writer    *io.SnapshotWriter
	evaluator *metrics.Evaluator
	logger    logrus.FieldLogger
	opts      Options

	params  core.CaptureParams
	session *core.Session
	sensor  image.Point
	view    image.Point
	mapper  core.Mapper
	layout  PanelLayout

	readouts  []metrics.Readout
	lastSaved int
	frames    int
	skipped   int
}

// NewApplication creates the frame loop. The session is created from the
// first frame so its geometry always matches the sensor.
func NewApplication(dev device.Device, display Display, writer *io.SnapshotWriter, params core.CaptureParams, logger logrus.FieldLogger, opts Options) *Application {
	def := DefaultOptions()
	if opts.DisplayScale <= 0 {
		opts.DisplayScale = def.DisplayScale
	}
	if opts.ROIWindowSize <= 0 {
		opts.ROIWindowSize = def.ROIWindowSize
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = def.ReadTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = def.StatsInterval
	}

	return &Application{
		device:    dev,
		display:   display,
		writer:    writer,
		evaluator: metrics.NewEvaluator(),
		logger:    logger,
		opts:      opts,
		params:    params.Normalize(),
		readouts:  make([]metrics.Readout, core.ROICount),
	}
}

// Session returns the region session, nil before the first frame
func (a *Application) Session() *core.Session { return a.session }

// Frames returns how many frames were processed
func (a *Application) Frames() int { return a.frames }

// Skipped returns how many reads timed out, failed or gave an unusable frame
func (a *Application) Skipped() int { return a.skipped }

// Run processes frames until ctx is cancelled or a quit action arrives.
// The stream is stopped and the windows closed on return.
func (a *Application) Run(ctx context.Context) (err error) {
	defer func() {
		if stopErr := a.device.StopStream(); stopErr != nil {
			a.logger.WithError(stopErr).Warn("Failed to stop stream")
		}
		if closeErr := a.display.Close(); closeErr != nil {
			a.logger.WithError(closeErr).Warn("Failed to close windows")
		}
	}()

	frame := gocv.NewMat()
	defer frame.Close()
	view := gocv.NewMat()
	defer view.Close()
	panel := gocv.NewMatWithSize(PanelHeight, PanelWidth, gocv.MatTypeCV8UC3)
	defer panel.Close()

	a.logger.Info("Dual ROI viewer started, press q to quit")
	if a.opts.ShowFocus {
		a.logger.WithField("metrics", a.evaluator.Names()).Debug("Focus readout enabled")
	}

	statsFrames := 0
	statsAt := time.Now()

	for {
		if ctx.Err() != nil {
			a.flushPending(frame)
			return nil
		}

		if err := a.device.ReadFrame(&frame, a.opts.ReadTimeout); err != nil {
			if errors.Is(err, device.ErrNotStreaming) {
				return fmt.Errorf("read frame: %w", err)
			}
			a.skipped++
			a.logger.WithError(err).Debug("Frame skipped")
			continue
		}
		if err := algorithms.ValidateImage(frame); err != nil {
			a.skipped++
			a.logger.WithError(err).Debug("Unusable frame skipped")
			continue
		}
		a.frames++

		quit, err := a.processFrame(frame, &view, &panel)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}

		if elapsed := time.Since(statsAt); elapsed >= a.opts.StatsInterval {
			a.logger.WithFields(logrus.Fields{
				"frames":  a.frames,
				"skipped": a.skipped,
				"fps":     fmt.Sprintf("%.1f", float64(a.frames-statsFrames)/elapsed.Seconds()),
			}).Debug("Capture statistics")
			statsFrames = a.frames
			statsAt = time.Now()
		}
	}
}

// processFrame runs one iteration in fixed order: clamp, main view, panel,
// region views, pending save, input
func (a *Application) processFrame(frame gocv.Mat, view, panel *gocv.Mat) (bool, error) {
	if err := a.ensureGeometry(image.Pt(frame.Cols(), frame.Rows())); err != nil {
		return false, err
	}

	a.session.Apply(core.ClampROIs{Bounds: a.sensor})

	gocv.Resize(frame, view, a.view, 0, 0, gocv.InterpolationLinear)
	DrawOverlay(NewMatCanvas(view), a.session, a.mapper, a.readouts)
	a.show(MainWindow, *view)

	a.layout = LayoutPanel(a.session)
	DrawPanel(NewMatCanvas(panel), a.layout)
	a.show(ControlsWindow, *panel)

	regions := a.extractRegions(frame)
	defer closeAll(regions)
	for i, m := range regions {
		a.show(core.Name(i), m)
	}

	a.savePending(regions)

	key, events := a.display.Poll(a.opts.PollInterval)
	quit := a.handleInput(key, events)
	if quit {
		// saves requested together with quit still happen
		a.savePending(regions)
	}
	return quit, nil
}

// ensureGeometry creates the session and opens the windows on the first
// frame, and follows sensor size changes afterwards
func (a *Application) ensureGeometry(sensor image.Point) error {
	if sensor == a.sensor && a.session != nil {
		return nil
	}

	a.sensor = sensor
	a.view = image.Pt(max(int(float64(sensor.X)*a.opts.DisplayScale), 1), max(int(float64(sensor.Y)*a.opts.DisplayScale), 1))
	a.mapper = core.NewMapper(a.view, a.sensor)
	sx, sy := a.mapper.Scale()

	if a.session != nil {
		a.logger.WithFields(logrus.Fields{
			"sensor": fmt.Sprintf("%dx%d", sensor.X, sensor.Y),
			"scale":  fmt.Sprintf("%.2fx%.2f", sx, sy),
		}).Warn("Sensor size changed")
		return nil
	}

	a.session = core.NewSession(sensor, a.params)
	a.logger.WithFields(logrus.Fields{
		"sensor":  fmt.Sprintf("%dx%d", sensor.X, sensor.Y),
		"display": fmt.Sprintf("%dx%d", a.view.X, a.view.Y),
		"scale":   fmt.Sprintf("%.2fx%.2f", sx, sy),
	}).Info("Session started")

	roiSize := image.Pt(a.opts.ROIWindowSize, a.opts.ROIWindowSize)
	surfaces := []struct {
		name string
		opts SurfaceOptions
	}{
		{MainWindow, SurfaceOptions{Size: a.view, Pointer: true}},
		{ControlsWindow, SurfaceOptions{AutoSize: true, Pointer: true}},
		{core.Name(0), SurfaceOptions{Size: roiSize}},
		{core.Name(1), SurfaceOptions{Size: roiSize}},
	}
	for _, s := range surfaces {
		if err := a.display.Open(s.name, s.opts); err != nil {
			return fmt.Errorf("open window %s: %w", s.name, err)
		}
	}
	return nil
}

// extractRegions returns the oriented sub-image of each region. Regions that
// fail to extract yield an empty Mat.
func (a *Application) extractRegions(frame gocv.Mat) []gocv.Mat {
	regions := make([]gocv.Mat, core.ROICount)
	for i, roi := range a.session.ROIs() {
		o := algorithms.Orientation{Rotation: roi.Rotation, MirrorH: roi.MirrorH, MirrorV: roi.MirrorV}
		m, err := algorithms.Extract(frame, roi.Rect.Bounds(), o)
		if err != nil {
			a.logger.WithError(err).WithField("roi", i+1).Warn("Region extraction failed")
			regions[i] = gocv.NewMat()
			a.readouts[i] = metrics.Readout{}
			continue
		}
		regions[i] = m
		if a.opts.ShowFocus {
			a.readouts[i] = a.evaluator.Readout(m)
		}
	}
	return regions
}

func (a *Application) savePending(regions []gocv.Mat) {
	count := a.session.SaveCount()
	if count == a.lastSaved {
		return
	}
	for i, m := range regions {
		if _, err := a.writer.Save(m, i, count); err != nil {
			a.logger.WithError(err).WithField("roi", i+1).Error("Failed to save snapshot")
		}
	}
	a.lastSaved = count
}

// flushPending writes a save requested by the last input poll when the loop
// stops before another frame arrives
func (a *Application) flushPending(frame gocv.Mat) {
	if a.session == nil || a.session.SaveCount() == a.lastSaved {
		return
	}
	if err := algorithms.ValidateImage(frame); err != nil {
		a.logger.WithError(err).Warn("Pending snapshot dropped")
		return
	}

	regions := a.extractRegions(frame)
	defer closeAll(regions)
	a.savePending(regions)
}

func closeAll(mats []gocv.Mat) {
	for _, m := range mats {
		m.Close()
	}
}

// handleInput applies pointer events then the key, and reports whether to quit
func (a *Application) handleInput(key int, events []PointerEvent) bool {
	quit := false
	for _, ev := range events {
		var action core.Action
		switch ev.Surface {
		case MainWindow:
			at := a.mapper.ToSensor(ev.At)
			switch ev.Kind {
			case PointerDown:
				action = core.PointerDown{At: at}
			case PointerMove:
				action = core.PointerMove{At: at}
			case PointerUp:
				action = core.PointerUp{}
			}
		case ControlsWindow:
			if ev.Kind != PointerDown {
				continue
			}
			hit, ok := a.layout.HitTest(ev.At)
			if !ok {
				continue
			}
			action = hit
		}
		if action != nil && a.apply(action) {
			quit = true
		}
	}

	if action, ok := core.KeyAction(key); ok && a.apply(action) {
		quit = true
	}
	return quit
}

// apply runs one action through the session and forwards its effects
func (a *Application) apply(action core.Action) bool {
	eff := a.session.Apply(action)

	if eff.Param != nil {
		a.pushParam(*eff.Param)
	}
	if eff.SaveRequested {
		a.logger.WithField("save", a.session.SaveCount()).Debug("Save requested")
	}
	return eff.Quit
}

func (a *Application) pushParam(u core.ParamUpdate) {
	ctrl := device.Exposure
	if u.Param == core.ParamGain {
		ctrl = device.Gain
	}

	logger := a.logger.WithFields(logrus.Fields{"control": ctrl.String(), "value": u.Value})
	if err := a.device.Configure(ctrl, u.Value); err != nil {
		logger.WithError(err).Warn("Failed to update device control")
		return
	}
	logger.Debug("Device control updated")
}

func (a *Application) show(name string, img gocv.Mat) {
	if err := a.display.Show(name, img); err != nil {
		a.logger.WithError(err).WithField("window", name).Warn("Failed to show image")
	}
}
