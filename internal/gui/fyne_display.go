// Fyne windows as an alternative to highgui
package gui

import (
	"fmt"
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"dual-roi-viewer/internal/core"
)

// FyneDisplay is a Display made of fyne windows. Window callbacks run on the
// fyne main goroutine and only queue input; Poll hands it to the frame loop.
type FyneDisplay struct {
	app    fyne.App
	logger logrus.FieldLogger

	mu       sync.Mutex
	surfaces map[string]*fyneSurface
	order    []string
	keys     []int
	events   []PointerEvent
	stopped  bool
	wake     chan struct{}
}

type fyneSurface struct {
	name     string
	window   fyne.Window
	view     *surfaceView
	autoSize bool
	pixels   image.Point
}

// NewFyneDisplay creates an empty window set on app
func NewFyneDisplay(app fyne.App, logger logrus.FieldLogger) *FyneDisplay {
	return &FyneDisplay{
		app:      app,
		logger:   logger,
		surfaces: make(map[string]*fyneSurface),
		wake:     make(chan struct{}, 1),
	}
}

func (d *FyneDisplay) Open(name string, opts SurfaceOptions) error {
	d.mu.Lock()
	_, exists := d.surfaces[name]
	stopped := d.stopped
	d.mu.Unlock()
	if exists {
		return nil
	}
	if stopped {
		return fmt.Errorf("%w: %s", ErrNoSurface, name)
	}

	s := &fyneSurface{name: name, autoSize: opts.AutoSize}
	s.view = newSurfaceView(d, s)

	fyne.DoAndWait(func() {
		w := d.app.NewWindow(name)
		w.SetPadded(false)
		w.SetContent(s.view)
		w.Canvas().SetOnTypedRune(d.typedRune)
		w.Canvas().SetOnTypedKey(d.typedKey)
		if opts.AutoSize {
			w.SetFixedSize(true)
		} else if opts.Size.X > 0 && opts.Size.Y > 0 {
			w.Resize(fyne.NewSize(float32(opts.Size.X), float32(opts.Size.Y)))
		}
		if name == MainWindow {
			w.SetMaster()
			w.SetOnClosed(d.mainClosed)
		}
		w.Show()
		s.window = w
	})

	d.mu.Lock()
	d.surfaces[name] = s
	d.order = append(d.order, name)
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"window":   name,
		"autosize": opts.AutoSize,
		"size":     fmt.Sprintf("%dx%d", opts.Size.X, opts.Size.Y),
		"backend":  "fyne",
	}).Debug("Window opened")
	return nil
}

func (d *FyneDisplay) Show(name string, img gocv.Mat) error {
	d.mu.Lock()
	s, ok := d.surfaces[name]
	stopped := d.stopped
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSurface, name)
	}
	if stopped || img.Empty() {
		return nil
	}

	frame, err := img.ToImage()
	if err != nil {
		return fmt.Errorf("convert image for %s: %w", name, err)
	}
	pixels := image.Pt(img.Cols(), img.Rows())

	d.mu.Lock()
	resized := s.pixels != pixels
	s.pixels = pixels
	d.mu.Unlock()

	fyne.Do(func() {
		s.view.image.Image = frame
		if s.autoSize && resized {
			size := fyne.NewSize(float32(pixels.X), float32(pixels.Y))
			s.view.image.SetMinSize(size)
			s.window.Resize(size)
		}
		s.view.image.Refresh()
	})
	return nil
}

// Poll waits up to timeout for input and returns the oldest queued key
// together with every queued pointer event
func (d *FyneDisplay) Poll(timeout time.Duration) (int, []PointerEvent) {
	d.mu.Lock()
	pending := len(d.keys) > 0 || len(d.events) > 0
	d.mu.Unlock()

	if !pending {
		timer := time.NewTimer(timeout)
		select {
		case <-d.wake:
		case <-timer.C:
		}
		timer.Stop()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := -1
	if len(d.keys) > 0 {
		key = d.keys[0]
		d.keys = d.keys[1:]
	}
	events := d.events
	d.events = nil
	return key, events
}

// Close closes every window still open. Once the main window has been
// closed fyne tears the rest down itself.
func (d *FyneDisplay) Close() error {
	d.mu.Lock()
	stopped := d.stopped
	d.stopped = true
	var windows []fyne.Window
	for _, name := range d.order {
		windows = append(windows, d.surfaces[name].window)
	}
	d.surfaces = make(map[string]*fyneSurface)
	d.order = nil
	d.mu.Unlock()

	if stopped || len(windows) == 0 {
		return nil
	}

	fyne.Do(func() {
		for _, w := range windows {
			w.Close()
		}
	})
	return nil
}

// mainClosed turns closing the main window into a quit key
func (d *FyneDisplay) mainClosed() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.pushKey(core.KeyEscape)
}

func (d *FyneDisplay) typedRune(r rune) {
	if r > 0xFF {
		return
	}
	d.pushKey(int(r))
}

func (d *FyneDisplay) typedKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape {
		d.pushKey(core.KeyEscape)
	}
}

func (d *FyneDisplay) pushKey(key int) {
	d.mu.Lock()
	d.keys = append(d.keys, key)
	d.mu.Unlock()
	d.notify()
}

func (d *FyneDisplay) pushPointer(s *fyneSurface, kind PointerKind, pos fyne.Position) {
	size := s.view.Size()

	d.mu.Lock()
	at := toPixels(pos, size, s.pixels)
	d.events = append(d.events, PointerEvent{Surface: s.name, Kind: kind, At: at})
	d.mu.Unlock()
	d.notify()
}

func (d *FyneDisplay) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// toPixels maps a position on a widget of the given size to image pixels.
// Images are stretched over the whole widget.
func toPixels(pos fyne.Position, size fyne.Size, pixels image.Point) image.Point {
	if size.Width <= 0 || size.Height <= 0 || pixels.X <= 0 || pixels.Y <= 0 {
		return image.Pt(int(pos.X), int(pos.Y))
	}
	return image.Pt(
		int(pos.X*float32(pixels.X)/size.Width),
		int(pos.Y*float32(pixels.Y)/size.Height),
	)
}

// surfaceView shows one image and reports primary-button input over it
type surfaceView struct {
	widget.BaseWidget

	display *FyneDisplay
	surface *fyneSurface
	image   *canvas.Image
	pressed bool
	last    fyne.Position
}

var (
	_ desktop.Mouseable = (*surfaceView)(nil)
	_ desktop.Hoverable = (*surfaceView)(nil)
	_ fyne.Draggable    = (*surfaceView)(nil)
)

func newSurfaceView(d *FyneDisplay, s *fyneSurface) *surfaceView {
	v := &surfaceView{
		display: d,
		surface: s,
		image:   canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1))),
	}
	v.image.FillMode = canvas.ImageFillStretch
	v.image.ScaleMode = canvas.ImageScaleSmooth
	v.ExtendBaseWidget(v)
	return v
}

func (v *surfaceView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.image)
}

func (v *surfaceView) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	v.pressed = true
	v.last = ev.Position
	v.display.pushPointer(v.surface, PointerDown, ev.Position)
}

func (v *surfaceView) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !v.pressed {
		return
	}
	v.pressed = false
	v.display.pushPointer(v.surface, PointerUp, ev.Position)
}

func (v *surfaceView) MouseIn(*desktop.MouseEvent) {}

func (v *surfaceView) MouseMoved(ev *desktop.MouseEvent) {
	v.display.pushPointer(v.surface, PointerMove, ev.Position)
}

func (v *surfaceView) MouseOut() {}

// Dragged replaces MouseMoved while the button is held
func (v *surfaceView) Dragged(ev *fyne.DragEvent) {
	v.last = ev.Position
	v.display.pushPointer(v.surface, PointerMove, ev.Position)
}

// DragEnd covers releases that fyne reports only as the end of a drag
func (v *surfaceView) DragEnd() {
	if !v.pressed {
		return
	}
	v.pressed = false
	v.display.pushPointer(v.surface, PointerUp, v.last)
}
