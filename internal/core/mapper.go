package core

import "image"

// Mapper converts between display space (the scaled preview) and sensor space
// (full capture resolution). Conversions truncate toward zero.
type Mapper struct {
	sx, sy   float64 // sensor / display
	isx, isy float64 // display / sensor
}

// NewMapper builds a mapper for a display of size display showing a sensor of size sensor.
// Zero-sized displays map 1:1.
func NewMapper(display, sensor image.Point) Mapper {
	m := Mapper{sx: 1, sy: 1, isx: 1, isy: 1}
	if display.X > 0 && sensor.X > 0 {
		m.sx = float64(sensor.X) / float64(display.X)
		m.isx = 1 / m.sx
	}
	if display.Y > 0 && sensor.Y > 0 {
		m.sy = float64(sensor.Y) / float64(display.Y)
		m.isy = 1 / m.sy
	}
	return m
}

// Scale returns the sensor/display factors
func (m Mapper) Scale() (sx, sy float64) {
	return m.sx, m.sy
}

// ToSensor maps a display-space point to sensor space
func (m Mapper) ToSensor(p image.Point) image.Point {
	return image.Pt(int(float64(p.X)*m.sx), int(float64(p.Y)*m.sy))
}

// ToDisplay maps a sensor-space point to display space
func (m Mapper) ToDisplay(p image.Point) image.Point {
	return image.Pt(int(float64(p.X)*m.isx), int(float64(p.Y)*m.isy))
}

// RectToDisplay maps a sensor-space rectangle to display space.
// Origin and size are scaled independently.
func (m Mapper) RectToDisplay(r Rect) image.Rectangle {
	origin := m.ToDisplay(image.Pt(r.X, r.Y))
	w := int(float64(r.Width) * m.isx)
	h := int(float64(r.Height) * m.isy)
	return image.Rect(origin.X, origin.Y, origin.X+w, origin.Y+h)
}
