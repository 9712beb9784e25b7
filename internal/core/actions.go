// Session actions: every mutation of a Session is expressed as one of these values
package core

import "image"

// Action is a closed set of session mutations. Only types in this package implement it.
type Action interface {
	action()
}

// Discrete control actions
type (
	// SelectROI makes the region at Index the target of pointer and control actions
	SelectROI struct{ Index int }
	RotateCW  struct{}
	RotateCCW struct{}
	MirrorH   struct{}
	MirrorV   struct{}
	// ExposureUp doubles the exposure up to MaxExposureUS
	ExposureUp struct{}
	// ExposureDown halves the exposure down to MinExposureUS
	ExposureDown struct{}
	GainUp       struct{}
	GainDown     struct{}
	// Save requests a snapshot of both regions
	Save struct{}
	// ResetROI clears the active region's orientation; its rectangle is kept
	ResetROI struct{}
	Quit     struct{}
)

// Pointer actions. Points are in sensor space.
type (
	PointerDown struct{ At image.Point }
	PointerMove struct{ At image.Point }
	PointerUp   struct{}
)

// ClampROIs re-establishes the bounds invariant of both regions against a sensor of size Bounds
type ClampROIs struct{ Bounds image.Point }

func (SelectROI) action()    {}
func (RotateCW) action()     {}
func (RotateCCW) action()    {}
func (MirrorH) action()      {}
func (MirrorV) action()      {}
func (ExposureUp) action()   {}
func (ExposureDown) action() {}
func (GainUp) action()       {}
func (GainDown) action()     {}
func (Save) action()         {}
func (ResetROI) action()     {}
func (Quit) action()         {}
func (PointerDown) action()  {}
func (PointerMove) action()  {}
func (PointerUp) action()    {}
func (ClampROIs) action()    {}

// Param identifies a capture parameter the device must be told about
type Param int

const (
	ParamExposure Param = iota
	ParamGain
)

func (p Param) String() string {
	switch p {
	case ParamExposure:
		return "exposure"
	case ParamGain:
		return "gain"
	default:
		return "unknown"
	}
}

// ParamUpdate asks the caller to push a new capture parameter value to the device
type ParamUpdate struct {
	Param Param
	Value int
}

// Effect describes what applying an action changed
type Effect struct {
	Changed       bool
	Param         *ParamUpdate
	SaveRequested bool
	Quit          bool
}
