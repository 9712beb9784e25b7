// Package device abstracts frame sources: cameras, screens and a synthetic pattern
package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	ErrNoDevices          = errors.New("no capture devices found")
	ErrUnknownDevice      = errors.New("unknown capture device")
	ErrTimeout            = errors.New("timed out waiting for frame")
	ErrUnsupportedControl = errors.New("control not supported by device")
	ErrNotStreaming       = errors.New("device is not streaming")
)

// Control identifies a device setting
type Control int

const (
	Exposure Control = iota // microseconds
	Gain
	WhiteBalanceRed
	WhiteBalanceBlue
	Format
)

// Values accepted by the Format control
const (
	FormatColor = iota // 8-bit, 3 channel BGR
	FormatMono
)

func (c Control) String() string {
	switch c {
	case Exposure:
		return "exposure"
	case Gain:
		return "gain"
	case WhiteBalanceRed:
		return "white_balance_red"
	case WhiteBalanceBlue:
		return "white_balance_blue"
	case Format:
		return "format"
	default:
		return fmt.Sprintf("control(%d)", int(c))
	}
}

// Info describes one device a driver can open
type Info struct {
	Driver string
	Index  int
	Name   string
	Width  int
	Height int
}

// ID returns the "<driver>:<index>" form accepted by Registry.Open
func (i Info) ID() string {
	return fmt.Sprintf("%s:%d", i.Driver, i.Index)
}

// Device is an opened frame source.
// ReadFrame copies the newest frame into dst and waits at most timeout for one.
type Device interface {
	Info() Info
	Configure(c Control, value int) error
	StartStream() error
	StopStream() error
	ReadFrame(dst *gocv.Mat, timeout time.Duration) error
	Close() error
}

// Driver enumerates and opens devices of one kind
type Driver interface {
	Name() string
	List() ([]Info, error)
	Open(index int) (Device, error)
}

// Registry holds the available drivers in registration order
type Registry struct {
	mu      sync.RWMutex
	drivers []Driver
}

// NewRegistry creates a registry with the given drivers
func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{}
	for _, d := range drivers {
		r.Register(d)
	}
	return r
}

// Register adds a driver, replacing any driver with the same name
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.drivers {
		if existing.Name() == d.Name() {
			r.drivers[i] = d
			return
		}
	}
	r.drivers = append(r.drivers, d)
}

// Drivers returns the registered driver names
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for _, d := range r.drivers {
		names = append(names, d.Name())
	}
	return names
}

// List returns the devices of every driver. Drivers that fail to enumerate
// are reported in the joined error while the others are still listed.
func (r *Registry) List() ([]Info, error) {
	r.mu.RLock()
	drivers := append([]Driver(nil), r.drivers...)
	r.mu.RUnlock()

	var (
		infos []Info
		errs  []error
	)
	for _, d := range drivers {
		found, err := d.List()
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s devices: %w", d.Name(), err))
			continue
		}
		infos = append(infos, found...)
	}
	return infos, errors.Join(errs...)
}

// Open opens a device by id. An empty id opens the first device of the
// first registered driver.
func (r *Registry) Open(id string) (Device, error) {
	if id == "" {
		return r.openDefault()
	}

	name, index, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	d := r.driver(name)
	if d == nil {
		return nil, fmt.Errorf("%w: no driver %q", ErrUnknownDevice, name)
	}
	return d.Open(index)
}

func (r *Registry) openDefault() (Device, error) {
	r.mu.RLock()
	var first Driver
	if len(r.drivers) > 0 {
		first = r.drivers[0]
	}
	r.mu.RUnlock()

	if first == nil {
		return nil, ErrNoDevices
	}
	infos, err := first.List()
	if err != nil {
		return nil, fmt.Errorf("list %s devices: %w", first.Name(), err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: driver %s", ErrNoDevices, first.Name())
	}
	return first.Open(infos[0].Index)
}

func (r *Registry) driver(name string) Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.drivers {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// ParseID splits "<driver>:<index>". A bare driver name means index 0.
func ParseID(id string) (string, int, error) {
	name, idx, found := strings.Cut(strings.TrimSpace(id), ":")
	if name == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownDevice, id)
	}
	if !found {
		return name, 0, nil
	}
	index, err := strconv.Atoi(idx)
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("%w: bad index in %q", ErrUnknownDevice, id)
	}
	return name, index, nil
}
