package core

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapper_HalfScale(t *testing.T) {
	m := NewMapper(image.Pt(960, 540), image.Pt(1920, 1080))
	sx, sy := m.Scale()
	assert.Equal(t, 2.0, sx)
	assert.Equal(t, 2.0, sy)

	assert.Equal(t, image.Pt(200, 100), m.ToSensor(image.Pt(100, 50)))
	assert.Equal(t, image.Pt(100, 50), m.ToDisplay(image.Pt(200, 100)))
	assert.Equal(t, image.Pt(50, 50), m.ToDisplay(image.Pt(101, 101)), "display mapping truncates")
	assert.Equal(t, image.Rect(50, 50, 370, 230), m.RectToDisplay(NewRect(100, 100, 640, 360)))
}

func TestMapper_TruncatesTowardZero(t *testing.T) {
	m := NewMapper(image.Pt(640, 480), image.Pt(1000, 1000))
	// sx = 1.5625, sy = 2.0833...
	assert.Equal(t, image.Pt(1, 2), m.ToSensor(image.Pt(1, 1)))
	assert.Equal(t, image.Pt(15, 20), m.ToSensor(image.Pt(10, 10)))
	assert.Equal(t, m.ToSensor(image.Pt(333, 111)), m.ToSensor(image.Pt(333, 111)))
}

func TestMapper_ZeroDisplayIsIdentity(t *testing.T) {
	m := NewMapper(image.Point{}, image.Pt(100, 100))
	assert.Equal(t, image.Pt(7, 9), m.ToSensor(image.Pt(7, 9)))
	assert.Equal(t, image.Pt(7, 9), m.ToDisplay(image.Pt(7, 9)))
}
