package gui

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"dual-roi-viewer/internal/core"
	"dual-roi-viewer/internal/device"
	"dual-roi-viewer/internal/io"
)

type pollResult struct {
	key    int
	events []PointerEvent
}

// fakeDisplay replays scripted input and records what was shown
type fakeDisplay struct {
	opened map[string]SurfaceOptions
	shown  map[string]image.Point
	script []pollResult
	polls  int
	closed bool
	onPoll func(n int)
}

func newFakeDisplay(script ...pollResult) *fakeDisplay {
	return &fakeDisplay{
		opened: make(map[string]SurfaceOptions),
		shown:  make(map[string]image.Point),
		script: script,
	}
}

func (f *fakeDisplay) Open(name string, opts SurfaceOptions) error {
	f.opened[name] = opts
	return nil
}

func (f *fakeDisplay) Show(name string, img gocv.Mat) error {
	if _, ok := f.opened[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSurface, name)
	}
	f.shown[name] = image.Pt(img.Cols(), img.Rows())
	return nil
}

func (f *fakeDisplay) Poll(timeout time.Duration) (int, []PointerEvent) {
	defer func() { f.polls++ }()
	if f.onPoll != nil {
		f.onPoll(f.polls)
	}
	if f.polls < len(f.script) {
		r := f.script[f.polls]
		return r.key, r.events
	}
	return -1, nil
}

func (f *fakeDisplay) Close() error {
	f.closed = true
	return nil
}

// recordingDevice remembers control writes and can fail the next reads
type recordingDevice struct {
	device.Device
	controls []string

	// timeouts fails that many reads with ErrTimeout
	timeouts int
	// unusable turns that many frames into 32-bit float images
	unusable int
}

func (r *recordingDevice) ReadFrame(dst *gocv.Mat, timeout time.Duration) error {
	if r.timeouts > 0 {
		r.timeouts--
		return device.ErrTimeout
	}
	if err := r.Device.ReadFrame(dst, timeout); err != nil {
		return err
	}
	if r.unusable > 0 {
		r.unusable--
		converted := gocv.NewMat()
		defer converted.Close()
		dst.ConvertTo(&converted, gocv.MatTypeCV32FC3)
		converted.CopyTo(dst)
	}
	return nil
}

func (r *recordingDevice) Configure(c device.Control, value int) error {
	r.controls = append(r.controls, fmt.Sprintf("%s=%d", c, value))
	return r.Device.Configure(c, value)
}

type harness struct {
	app     *Application
	display *fakeDisplay
	device  *recordingDevice
	dir     string
	hook    *test.Hook
}

func newHarness(t *testing.T, script ...pollResult) *harness {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	driver := device.NewPatternDriver(device.PatternOptions{Width: 320, Height: 240}, logger)
	dev, err := driver.Open(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })
	require.NoError(t, dev.StartStream())

	dir := t.TempDir()
	writer, err := io.NewSnapshotWriter(dir, "png", logger)
	require.NoError(t, err)

	rec := &recordingDevice{Device: dev}
	display := newFakeDisplay(script...)
	opts := DefaultOptions()
	opts.ReadTimeout = time.Second

	return &harness{
		app:     NewApplication(rec, display, writer, core.DefaultCaptureParams(), logger, opts),
		display: display,
		device:  rec,
		dir:     dir,
		hook:    hook,
	}
}

func key(k int) pollResult { return pollResult{key: k} }

func pointer(surface string, kind PointerKind, x, y int) pollResult {
	return pollResult{key: -1, events: []PointerEvent{{Surface: surface, Kind: kind, At: image.Pt(x, y)}}}
}

func TestApplication_SaveAndQuit(t *testing.T) {
	h := newHarness(t, key('s'), key(-1), key('q'))

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, 3, h.app.Frames())
	assert.True(t, h.display.closed)
	for _, name := range []string{"roi1_save_0001.png", "roi2_save_0001.png"} {
		_, err := os.Stat(filepath.Join(h.dir, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(h.dir, "roi1_save_0002.png"))
	assert.True(t, os.IsNotExist(err))

	saved := 0
	for _, e := range h.hook.AllEntries() {
		if e.Message == "Saved snapshot" {
			saved++
		}
	}
	assert.Equal(t, 2, saved)

	frame := gocv.NewMat()
	defer frame.Close()
	assert.ErrorIs(t, h.device.ReadFrame(&frame, 10*time.Millisecond), device.ErrNotStreaming, "stream stopped on exit")
}

func TestApplication_SaveTogetherWithQuit(t *testing.T) {
	save, _ := LayoutPanel(newTestSession()).Button("Save")
	h := newHarness(t, pollResult{
		key:    'q',
		events: []PointerEvent{{Surface: ControlsWindow, Kind: PointerDown, At: center(save.Rect)}},
	})

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, 1, h.app.Frames())
	for _, name := range []string{"roi1_save_0001.png", "roi2_save_0001.png"} {
		_, err := os.Stat(filepath.Join(h.dir, name))
		assert.NoError(t, err, name)
	}
}

func TestApplication_WindowsAndViews(t *testing.T) {
	h := newHarness(t, key('q'))

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, SurfaceOptions{Size: image.Pt(160, 120), Pointer: true}, h.display.opened[MainWindow])
	assert.True(t, h.display.opened[ControlsWindow].AutoSize)
	assert.Equal(t, image.Pt(400, 400), h.display.opened["ROI 1"].Size)

	assert.Equal(t, image.Pt(160, 120), h.display.shown[MainWindow])
	assert.Equal(t, image.Pt(PanelWidth, PanelHeight), h.display.shown[ControlsWindow])
	assert.Equal(t, image.Pt(106, 80), h.display.shown["ROI 1"])
	assert.Equal(t, image.Pt(106, 80), h.display.shown["ROI 2"])
}

func TestApplication_RotatedRegionView(t *testing.T) {
	h := newHarness(t, key('r'), key('q'))

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, 90, h.app.Session().ROI(0).Rotation)
	assert.Equal(t, image.Pt(80, 106), h.display.shown["ROI 1"], "second frame shows the rotated region")
	assert.Equal(t, image.Pt(106, 80), h.display.shown["ROI 2"])
}

func TestApplication_PanelClick(t *testing.T) {
	l := LayoutPanel(newTestSession())
	mh, _ := l.Button("Mirror H")
	gain, _ := l.Button("Gain +")

	h := newHarness(t,
		pointer(ControlsWindow, PointerDown, center(mh.Rect).X, center(mh.Rect).Y),
		pointer(ControlsWindow, PointerMove, center(gain.Rect).X, center(gain.Rect).Y),
		pointer(ControlsWindow, PointerDown, center(gain.Rect).X, center(gain.Rect).Y),
		key('q'),
	)

	require.NoError(t, h.app.Run(context.Background()))

	roi := h.app.Session().ROI(0)
	assert.True(t, roi.MirrorH)
	assert.False(t, roi.MirrorV)
	assert.Equal(t, 90, h.app.Session().Params().Gain)
	assert.Equal(t, []string{"gain=90"}, h.device.controls)
}

func TestApplication_DragInMainView(t *testing.T) {
	// display is half the sensor size, so display (60,60) is sensor (120,120)
	h := newHarness(t,
		pointer(MainWindow, PointerDown, 60, 60),
		pointer(MainWindow, PointerMove, 70, 60),
		pointer(MainWindow, PointerUp, 70, 60),
		pointer(MainWindow, PointerMove, 5, 5),
		key('q'),
	)

	require.NoError(t, h.app.Run(context.Background()))

	s := h.app.Session()
	assert.Equal(t, core.NewRect(120, 100, 106, 80), s.ROI(0).Rect)
	assert.Equal(t, core.ModeIdle, s.Mode())
}

func TestApplication_ExposureKeysReachDevice(t *testing.T) {
	h := newHarness(t, key('+'), key('-'), key('-'), key('q'))

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, 25000, h.app.Session().Params().ExposureUS)
	assert.Equal(t, []string{"exposure=100000", "exposure=50000", "exposure=25000"}, h.device.controls)
}

func TestApplication_CancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.app.Run(ctx))
	assert.Zero(t, h.app.Frames())
	assert.Nil(t, h.app.Session())
	assert.True(t, h.display.closed)
}

func TestApplication_StoppedDeviceIsFatal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.device.StopStream())

	err := h.app.Run(context.Background())
	assert.ErrorIs(t, err, device.ErrNotStreaming)
}

func TestApplication_TimeoutsSkipWithoutPolling(t *testing.T) {
	h := newHarness(t, key('q'))
	h.device.timeouts = 2

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, 1, h.app.Frames())
	assert.Equal(t, 2, h.app.Skipped())
	assert.Equal(t, 1, h.display.polls)
}

func TestApplication_UnusableFrameSkipped(t *testing.T) {
	h := newHarness(t, key('q'))
	h.device.unusable = 1

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, 1, h.app.Frames())
	assert.Equal(t, 1, h.app.Skipped())
	assert.Equal(t, 1, h.display.polls)
}

func TestApplication_SaveFailureKeepsOtherRegion(t *testing.T) {
	h := newHarness(t, key('s'), key('q'))
	require.NoError(t, os.Mkdir(filepath.Join(h.dir, "roi1_save_0001.png"), 0o755))

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, 2, h.app.Frames())
	_, err := os.Stat(filepath.Join(h.dir, "roi2_save_0001.png"))
	assert.NoError(t, err)

	var failed []logrus.Fields
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			failed = append(failed, e.Data)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0]["roi"])
}

func TestApplication_CancelFlushesPendingSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(t, key('s'))
	h.display.onPoll = func(int) { cancel() }

	require.NoError(t, h.app.Run(ctx))

	assert.Equal(t, 1, h.app.Frames())
	for _, name := range []string{"roi1_save_0001.png", "roi2_save_0001.png"} {
		_, err := os.Stat(filepath.Join(h.dir, name))
		assert.NoError(t, err, name)
	}
}
