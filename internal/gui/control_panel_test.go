package gui

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dual-roi-viewer/internal/core"
)

func newTestSession() *core.Session {
	return core.NewSession(image.Pt(320, 240), core.DefaultCaptureParams())
}

func center(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
}

func TestLayoutPanel_Geometry(t *testing.T) {
	l := LayoutPanel(newTestSession())
	bounds := image.Rect(0, 0, PanelWidth, PanelHeight)

	require.Len(t, l.Buttons, 12)
	for i, b := range l.Buttons {
		assert.True(t, b.Rect.In(bounds), "button %s outside panel", b.Label)
		assert.Equal(t, ButtonWidth, b.Rect.Dx())
		assert.Equal(t, ButtonHeight, b.Rect.Dy())
		if i%2 == 0 {
			assert.Equal(t, 6, b.Rect.Min.X, b.Label)
		} else {
			assert.Equal(t, 122, b.Rect.Min.X, b.Label)
		}
	}
	for _, txt := range l.Texts {
		assert.True(t, txt.At.In(bounds), "text %q outside panel", txt.Text)
	}

	labels := make([]string, 0, len(l.Buttons))
	for _, b := range l.Buttons {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{
		"ROI 1", "ROI 2",
		"Rotate CW", "Rotate CCW",
		"Mirror H", "Mirror V",
		"Exp +", "Exp -",
		"Gain +", "Gain -",
		"Save", "Reset",
	}, labels)
}

func TestLayoutPanel_Labels(t *testing.T) {
	s := newTestSession()
	s.Apply(core.RotateCW{})
	s.Apply(core.ExposureDown{})
	s.Apply(core.GainUp{})

	texts := map[string]bool{}
	for _, txt := range LayoutPanel(s).Texts {
		texts[txt.Text] = true
	}

	for _, want := range []string{
		"DUAL ROI CONTROLS",
		"SELECT ROI",
		"ROTATION (90 deg)",
		"MIRROR",
		"EXPOSURE (25.0 ms)",
		"GAIN (90)",
		"ROI1: 106x80 R:90 H:N V:N",
		"ROI2: 106x80 R:0 H:N V:N",
	} {
		assert.True(t, texts[want], "missing %q", want)
	}
}

func TestLayoutPanel_Styles(t *testing.T) {
	s := newTestSession()

	l := LayoutPanel(s)
	roi1, _ := l.Button("ROI 1")
	roi2, _ := l.Button("ROI 2")
	assert.Equal(t, StyleActive, roi1.Style)
	assert.Equal(t, StyleNormal, roi2.Style)

	s.Apply(core.SelectROI{Index: 1})
	s.Apply(core.MirrorV{})

	l = LayoutPanel(s)
	roi2, _ = l.Button("ROI 2")
	mh, _ := l.Button("Mirror H")
	mv, _ := l.Button("Mirror V")
	assert.Equal(t, StyleActive, roi2.Style)
	assert.Equal(t, StyleNormal, mh.Style)
	assert.Equal(t, StyleToggled, mv.Style)

	status := l.Texts[len(l.Texts)-1]
	assert.Equal(t, "ROI2: 106x80 R:0 H:N V:Y", status.Text)
	assert.Equal(t, statusActiveText, status.Style)
	assert.Equal(t, statusInactiveText, l.Texts[len(l.Texts)-2].Style)
}

func TestPanelLayout_HitTest(t *testing.T) {
	l := LayoutPanel(newTestSession())

	for _, b := range l.Buttons {
		action, ok := l.HitTest(center(b.Rect))
		require.True(t, ok, b.Label)
		assert.Equal(t, b.Action, action, b.Label)

		// half-open: the max edge belongs to the neighbour
		_, ok = l.HitTest(b.Rect.Max)
		assert.False(t, ok, b.Label)
	}

	for _, p := range []image.Point{{0, 0}, {119, 90}, {3, 90}, {240, 90}, {10, 510}} {
		_, ok := l.HitTest(p)
		assert.False(t, ok, "point %v", p)
	}
}

func TestPanelDispatch_MirrorHOnlyTogglesMirrorH(t *testing.T) {
	s := newTestSession()
	before := s.ROIs()

	l := LayoutPanel(s)
	b, ok := l.Button("Mirror H")
	require.True(t, ok)
	action, ok := l.HitTest(center(b.Rect))
	require.True(t, ok)
	s.Apply(action)

	after := s.ROIs()
	assert.True(t, after[0].MirrorH)
	assert.False(t, after[0].MirrorV)
	assert.Equal(t, before[0].Rotation, after[0].Rotation)
	assert.Equal(t, before[0].Rect, after[0].Rect)
	assert.Equal(t, before[1], after[1])
	assert.Equal(t, core.DefaultCaptureParams(), s.Params())
}

func TestDrawPanel(t *testing.T) {
	l := LayoutPanel(newTestSession())
	c := newRecordingCanvas(PanelWidth, PanelHeight)
	DrawPanel(c, l)

	require.NotEmpty(t, c.ops)
	first := c.ops[0]
	assert.Equal(t, "fill", first.kind)
	assert.Equal(t, image.Rect(0, 0, PanelWidth, PanelHeight), first.rect)
	assert.Equal(t, panelBackground, first.color)

	assert.Equal(t, len(l.Separators), c.count("line"))
	assert.Equal(t, len(l.Buttons), c.count("stroke"))
	assert.Equal(t, len(l.Texts)+len(l.Buttons), c.count("text"))

	op, ok := c.text("Rotate CW")
	require.True(t, ok)
	assert.Equal(t, AnchorCenter, op.anchor)
	b, _ := l.Button("Rotate CW")
	assert.Equal(t, center(b.Rect), op.from)

	op, ok = c.text("DUAL ROI CONTROLS")
	require.True(t, ok)
	assert.Equal(t, AnchorBaseline, op.anchor)
}
