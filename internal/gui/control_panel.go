// Control panel layout, hit-testing and rendering
package gui

import (
	"fmt"
	"image"

	"dual-roi-viewer/internal/core"
)

// Panel geometry
const (
	PanelWidth   = 250
	PanelHeight  = 520
	ButtonWidth  = 110
	ButtonHeight = 36
	ButtonPad    = 6
)

// Vertical rhythm of the panel
const (
	panelTop       = 10
	titleBlock     = 32
	groupLabelGap  = 20
	buttonGap      = 8
	separatorGap   = 10
	statusGap      = 14
	statusLine     = 20
	separatorInset = 10
)

// PanelLayout is the panel content for one frame. It is rebuilt from the
// session every frame and never persisted.
type PanelLayout struct {
	Size       image.Point
	Texts      []TextItem
	Separators []int // y of each horizontal rule
	Buttons    []Button
}

// HitTest returns the action of the first button containing p
func (l PanelLayout) HitTest(p image.Point) (core.Action, bool) {
	for _, b := range l.Buttons {
		if b.Contains(p) {
			return b.Action, true
		}
	}
	return nil, false
}

// Button returns the button with the given label
func (l PanelLayout) Button(label string) (Button, bool) {
	for _, b := range l.Buttons {
		if b.Label == label {
			return b, true
		}
	}
	return Button{}, false
}

type panelBuilder struct {
	layout PanelLayout
	y      int
}

func (pb *panelBuilder) separator() {
	pb.layout.Separators = append(pb.layout.Separators, pb.y)
	pb.y += separatorGap
}

func (pb *panelBuilder) group(label string) {
	pb.layout.Texts = append(pb.layout.Texts, TextItem{Text: label, At: image.Pt(10, pb.y+13), Style: groupText})
	pb.y += groupLabelGap
}

func (pb *panelBuilder) buttonRow(left, right Button) {
	left.Rect = image.Rect(ButtonPad, pb.y, ButtonPad+ButtonWidth, pb.y+ButtonHeight)
	x := ButtonWidth + 2*ButtonPad
	right.Rect = image.Rect(x, pb.y, x+ButtonWidth, pb.y+ButtonHeight)
	pb.layout.Buttons = append(pb.layout.Buttons, left, right)
	pb.y += ButtonHeight + buttonGap
}

// LayoutPanel builds the panel for the current session state
func LayoutPanel(s *core.Session) PanelLayout {
	active := s.Active()
	roi := s.ROI(active)
	params := s.Params()

	pb := &panelBuilder{
		layout: PanelLayout{Size: image.Pt(PanelWidth, PanelHeight)},
		y:      panelTop,
	}

	pb.layout.Texts = append(pb.layout.Texts, TextItem{Text: "DUAL ROI CONTROLS", At: image.Pt(20, pb.y+16), Style: titleText})
	pb.y += titleBlock
	pb.separator()

	pb.group("SELECT ROI")
	pb.buttonRow(
		Button{Label: "ROI 1", Style: selectedStyle(active == 0), Action: core.SelectROI{Index: 0}},
		Button{Label: "ROI 2", Style: selectedStyle(active == 1), Action: core.SelectROI{Index: 1}},
	)
	pb.separator()

	pb.group(fmt.Sprintf("ROTATION (%d deg)", roi.Rotation))
	pb.buttonRow(
		Button{Label: "Rotate CW", Action: core.RotateCW{}},
		Button{Label: "Rotate CCW", Action: core.RotateCCW{}},
	)
	pb.separator()

	pb.group("MIRROR")
	pb.buttonRow(
		Button{Label: "Mirror H", Style: toggledStyle(roi.MirrorH), Action: core.MirrorH{}},
		Button{Label: "Mirror V", Style: toggledStyle(roi.MirrorV), Action: core.MirrorV{}},
	)
	pb.separator()

	pb.group(fmt.Sprintf("EXPOSURE (%.1f ms)", float64(params.ExposureUS)/1000))
	pb.buttonRow(
		Button{Label: "Exp +", Action: core.ExposureUp{}},
		Button{Label: "Exp -", Action: core.ExposureDown{}},
	)

	pb.group(fmt.Sprintf("GAIN (%d)", params.Gain))
	pb.buttonRow(
		Button{Label: "Gain +", Action: core.GainUp{}},
		Button{Label: "Gain -", Action: core.GainDown{}},
	)
	pb.separator()

	pb.buttonRow(
		Button{Label: "Save", Action: core.Save{}},
		Button{Label: "Reset", Action: core.ResetROI{}},
	)
	pb.layout.Separators = append(pb.layout.Separators, pb.y)
	pb.y += statusGap

	for i, r := range s.ROIs() {
		style := statusInactiveText
		if i == active {
			style = statusActiveText
		}
		pb.layout.Texts = append(pb.layout.Texts, TextItem{Text: StatusLine(i, r), At: image.Pt(10, pb.y+12), Style: style})
		pb.y += statusLine
	}

	return pb.layout
}

// StatusLine summarizes region i for the panel footer
func StatusLine(i int, r core.ROI) string {
	return fmt.Sprintf("ROI%d: %dx%d R:%d H:%s V:%s", i+1, r.Rect.Width, r.Rect.Height, r.Rotation, yesNo(r.MirrorH), yesNo(r.MirrorV))
}

// DrawPanel renders l onto c
func DrawPanel(c Canvas, l PanelLayout) {
	c.FillRect(image.Rectangle{Max: l.Size}, panelBackground)

	for _, t := range l.Texts {
		drawText(c, t)
	}
	for _, y := range l.Separators {
		c.Line(image.Pt(separatorInset, y), image.Pt(l.Size.X-separatorInset, y), separatorColor, 1)
	}
	for _, b := range l.Buttons {
		drawButton(c, b)
	}
}

func selectedStyle(selected bool) ButtonStyle {
	if selected {
		return StyleActive
	}
	return StyleNormal
}

func toggledStyle(on bool) ButtonStyle {
	if on {
		return StyleToggled
	}
	return StyleNormal
}
