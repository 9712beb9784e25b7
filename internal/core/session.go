// Interactive ROI session: two regions, the active index and the pointer state machine
package core

import (
	"fmt"
	"image"
)

// Capture parameter limits
const (
	MinExposureUS = 100
	MaxExposureUS = 10_000_000
	MinGain       = 0
	MaxGain       = 300
	GainStep      = 10

	// ResizeTolerance is the per-axis distance from the bottom-right corner,
	// in sensor pixels, within which a pointer press starts a resize
	ResizeTolerance = 30
)

// Mode is the pointer interaction state
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// CaptureParams are the device settings driven from the control panel
type CaptureParams struct {
	ExposureUS int
	Gain       int
}

// DefaultCaptureParams returns the startup exposure and gain
func DefaultCaptureParams() CaptureParams {
	return CaptureParams{ExposureUS: 50_000, Gain: 80}
}

// Normalize clamps both values into their allowed ranges
func (p CaptureParams) Normalize() CaptureParams {
	p.ExposureUS = max(MinExposureUS, min(p.ExposureUS, MaxExposureUS))
	p.Gain = max(MinGain, min(p.Gain, MaxGain))
	return p
}

// Session owns both regions and all interaction state.
// It is not safe for concurrent use; the frame loop is its only caller.
type Session struct {
	rois   [ROICount]ROI
	active int

	mode   Mode
	anchor image.Point
	origin Rect

	params    CaptureParams
	saveCount int
}

// NewSession creates a session with default regions for a sensor of the given size
func NewSession(sensor image.Point, params CaptureParams) *Session {
	return &Session{
		rois:   DefaultROIs(sensor),
		params: params.Normalize(),
	}
}

// ROI returns a copy of the region at index i
func (s *Session) ROI(i int) ROI {
	return s.rois[i]
}

// ROIs returns a copy of both regions
func (s *Session) ROIs() [ROICount]ROI {
	return s.rois
}

// Active returns the index of the region targeted by actions
func (s *Session) Active() int { return s.active }

// Mode returns the current pointer interaction state
func (s *Session) Mode() Mode { return s.mode }

// Params returns the current capture parameters
func (s *Session) Params() CaptureParams { return s.params }

// SaveCount returns how many saves have been requested
func (s *Session) SaveCount() int { return s.saveCount }

// Apply is the single mutation entry point of the session
func (s *Session) Apply(a Action) Effect {
	switch a := a.(type) {
	case SelectROI:
		if a.Index < 0 || a.Index >= ROICount {
			return Effect{}
		}
		s.active = a.Index
		s.mode = ModeIdle
		return Effect{Changed: true}
	case RotateCW:
		r := &s.rois[s.active]
		r.Rotation = (r.Rotation + 90) % 360
		return Effect{Changed: true}
	case RotateCCW:
		r := &s.rois[s.active]
		r.Rotation = (r.Rotation + 270) % 360
		return Effect{Changed: true}
	case MirrorH:
		r := &s.rois[s.active]
		r.MirrorH = !r.MirrorH
		return Effect{Changed: true}
	case MirrorV:
		r := &s.rois[s.active]
		r.MirrorV = !r.MirrorV
		return Effect{Changed: true}
	case ExposureUp:
		s.params.ExposureUS = min(s.params.ExposureUS*2, MaxExposureUS)
		return s.paramEffect(ParamExposure, s.params.ExposureUS)
	case ExposureDown:
		s.params.ExposureUS = max(s.params.ExposureUS/2, MinExposureUS)
		return s.paramEffect(ParamExposure, s.params.ExposureUS)
	case GainUp:
		s.params.Gain = min(s.params.Gain+GainStep, MaxGain)
		return s.paramEffect(ParamGain, s.params.Gain)
	case GainDown:
		s.params.Gain = max(s.params.Gain-GainStep, MinGain)
		return s.paramEffect(ParamGain, s.params.Gain)
	case Save:
		s.saveCount++
		return Effect{Changed: true, SaveRequested: true}
	case ResetROI:
		r := &s.rois[s.active]
		r.Rotation = 0
		r.MirrorH = false
		r.MirrorV = false
		return Effect{Changed: true}
	case Quit:
		return Effect{Quit: true}
	case PointerDown:
		return s.pointerDown(a.At)
	case PointerMove:
		return s.pointerMove(a.At)
	case PointerUp:
		changed := s.mode != ModeIdle
		s.mode = ModeIdle
		return Effect{Changed: changed}
	case ClampROIs:
		changed := false
		for i := range s.rois {
			c := Clamp(s.rois[i].Rect, a.Bounds.X, a.Bounds.Y)
			if c != s.rois[i].Rect {
				s.rois[i].Rect = c
				changed = true
			}
		}
		return Effect{Changed: changed}
	default:
		panic(fmt.Sprintf("core: unhandled action %T", a))
	}
}

func (s *Session) paramEffect(p Param, v int) Effect {
	return Effect{Changed: true, Param: &ParamUpdate{Param: p, Value: v}}
}

func (s *Session) pointerDown(p image.Point) Effect {
	r := s.rois[s.active].Rect
	corner := r.BottomRight()
	switch {
	case abs(p.X-corner.X) < ResizeTolerance && abs(p.Y-corner.Y) < ResizeTolerance:
		s.mode = ModeResizing
	case r.Contains(p):
		s.mode = ModeDragging
	default:
		return Effect{}
	}
	s.anchor = p
	s.origin = r
	return Effect{Changed: true}
}

func (s *Session) pointerMove(p image.Point) Effect {
	dx, dy := p.X-s.anchor.X, p.Y-s.anchor.Y
	r := &s.rois[s.active].Rect
	switch s.mode {
	case ModeDragging:
		r.X = s.origin.X + dx
		r.Y = s.origin.Y + dy
	case ModeResizing:
		r.Width = max(MinSize, s.origin.Width+dx)
		r.Height = max(MinSize, s.origin.Height+dy)
	default:
		return Effect{}
	}
	return Effect{Changed: true}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
