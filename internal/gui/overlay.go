package gui

import (
	"image"

	"dual-roi-viewer/internal/core"
	"dual-roi-viewer/internal/metrics"
)

const (
	roiLabelScale = 0.5
	cornerMarker  = 8
)

// DrawOverlay marks each region on the main view: outline (thicker when
// active), name label with optional focus readout, and a filled resize handle
// at the bottom-right corner. Region geometry is mapped from sensor space.
func DrawOverlay(c Canvas, s *core.Session, m core.Mapper, readouts []metrics.Readout) {
	for i, roi := range s.ROIs() {
		r := m.RectToDisplay(roi.Rect)

		thickness := 1
		if i == s.Active() {
			thickness = 2
		}
		c.StrokeRect(r, roi.Color, thickness)

		label := core.Name(i)
		if i < len(readouts) && readouts[i].Valid {
			label += " " + readouts[i].Label()
		}
		c.Text(label, image.Pt(r.Min.X+4, r.Min.Y-5), AnchorBaseline, TextStyle{Scale: roiLabelScale, Color: roi.Color, Thickness: 1})

		c.FillRect(image.Rectangle{Min: r.Max.Sub(image.Pt(cornerMarker, cornerMarker)), Max: r.Max}, roi.Color)
	}
}
