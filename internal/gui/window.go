// Native windows backed by OpenCV highgui
package gui

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var ErrNoSurface = errors.New("surface not open")

// PointerKind is the type of a pointer event
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerUp
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerUp:
		return "up"
	default:
		return "move"
	}
}

// PointerEvent is a left-button or motion event in surface-local pixels
type PointerEvent struct {
	Surface string
	Kind    PointerKind
	At      image.Point
}

// SurfaceOptions configures a window when it is opened
type SurfaceOptions struct {
	// Size is the initial window size for scalable windows
	Size image.Point
	// AutoSize fixes the window to the size of the shown image
	AutoSize bool
	// Pointer enables pointer events for the window
	Pointer bool
}

// Display presents images and collects input. Poll returns the key pressed
// (-1 for none) and the pointer events received since the last call.
type Display interface {
	Open(name string, opts SurfaceOptions) error
	Show(name string, img gocv.Mat) error
	Poll(timeout time.Duration) (int, []PointerEvent)
	Close() error
}

// highgui mouse event codes
const (
	cvEventMouseMove   = 0
	cvEventLButtonDown = 1
	cvEventLButtonUp   = 4
)

// HighGUI is a Display made of OpenCV windows. It must be used from the
// goroutine that created it.
type HighGUI struct {
	logger logrus.FieldLogger

	windows map[string]*gocv.Window
	order   []string

	// mouse callbacks only queue events; Poll drains them
	mu     sync.Mutex
	events []PointerEvent
}

// NewHighGUI creates an empty window set
func NewHighGUI(logger logrus.FieldLogger) *HighGUI {
	return &HighGUI{
		logger:  logger,
		windows: make(map[string]*gocv.Window),
	}
}

func (h *HighGUI) Open(name string, opts SurfaceOptions) error {
	if _, ok := h.windows[name]; ok {
		return nil
	}

	w := gocv.NewWindow(name)
	if opts.AutoSize {
		w.SetWindowProperty(gocv.WindowPropertyAutosize, gocv.WindowAutosize)
	} else if opts.Size.X > 0 && opts.Size.Y > 0 {
		w.ResizeWindow(opts.Size.X, opts.Size.Y)
	}
	if opts.Pointer {
		w.SetMouseHandler(h.onMouse, name)
	}

	h.windows[name] = w
	h.order = append(h.order, name)

	h.logger.WithFields(logrus.Fields{
		"window":   name,
		"autosize": opts.AutoSize,
		"size":     fmt.Sprintf("%dx%d", opts.Size.X, opts.Size.Y),
	}).Debug("Window opened")
	return nil
}

func (h *HighGUI) Show(name string, img gocv.Mat) error {
	w, ok := h.windows[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSurface, name)
	}
	if img.Empty() {
		return nil
	}
	w.IMShow(img)
	return nil
}

// Poll pumps the highgui event loop for at least one millisecond
func (h *HighGUI) Poll(timeout time.Duration) (int, []PointerEvent) {
	key := -1
	if len(h.order) == 0 {
		time.Sleep(timeout)
	} else {
		delay := max(int(timeout.Milliseconds()), 1)
		if k := h.windows[h.order[0]].WaitKey(delay); k >= 0 {
			key = k & 0xFF
		}
	}

	h.mu.Lock()
	events := h.events
	h.events = nil
	h.mu.Unlock()

	return key, events
}

func (h *HighGUI) onMouse(event, x, y, flags int, userdata interface{}) {
	name, _ := userdata.(string)

	var kind PointerKind
	switch event {
	case cvEventMouseMove:
		kind = PointerMove
	case cvEventLButtonDown:
		kind = PointerDown
	case cvEventLButtonUp:
		kind = PointerUp
	default:
		return
	}

	h.mu.Lock()
	h.events = append(h.events, PointerEvent{Surface: name, Kind: kind, At: image.Pt(x, y)})
	h.mu.Unlock()
}

// Close destroys every window
func (h *HighGUI) Close() error {
	var errs []error
	for _, name := range h.order {
		if err := h.windows[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close window %s: %w", name, err))
		}
	}
	h.windows = make(map[string]*gocv.Window)
	h.order = nil
	return errors.Join(errs...)
}
