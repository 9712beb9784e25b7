// Panel widgets: buttons, styles and palette
package gui

import (
	"image"
	"image/color"

	"dual-roi-viewer/internal/core"
)

// ButtonStyle selects a button's colors
type ButtonStyle int

const (
	StyleNormal ButtonStyle = iota
	// StyleActive marks the selected region button
	StyleActive
	// StyleToggled marks an option that is switched on
	StyleToggled
)

func (s ButtonStyle) String() string {
	switch s {
	case StyleActive:
		return "active"
	case StyleToggled:
		return "toggled"
	default:
		return "normal"
	}
}

type buttonColors struct {
	bg, border, text color.RGBA
}

var buttonPalette = map[ButtonStyle]buttonColors{
	StyleNormal:  {bg: gray(60), border: gray(100), text: gray(200)},
	StyleActive:  {bg: color.RGBA{R: 40, G: 120, B: 180, A: 255}, border: color.RGBA{R: 60, G: 160, B: 220, A: 255}, text: gray(255)},
	StyleToggled: {bg: color.RGBA{R: 50, G: 160, B: 50, A: 255}, border: color.RGBA{R: 80, G: 200, B: 80, A: 255}, text: gray(255)},
}

var (
	panelBackground = gray(35)
	separatorColor  = gray(80)

	titleText = TextStyle{Scale: 0.55, Color: gray(220), Thickness: 1}
	groupText = TextStyle{Scale: 0.4, Color: gray(150), Thickness: 1}

	statusActiveText   = TextStyle{Scale: 0.38, Color: color.RGBA{R: 255, G: 255, A: 255}, Thickness: 1}
	statusInactiveText = TextStyle{Scale: 0.38, Color: gray(120), Thickness: 1}
)

const buttonTextScale = 0.45

// Button is one clickable panel control. Rect is in panel coordinates.
type Button struct {
	Rect   image.Rectangle
	Label  string
	Style  ButtonStyle
	Action core.Action
}

// Contains reports whether p (panel coordinates) hits the button
func (b Button) Contains(p image.Point) bool {
	return p.In(b.Rect)
}

func drawButton(c Canvas, b Button) {
	colors, ok := buttonPalette[b.Style]
	if !ok {
		colors = buttonPalette[StyleNormal]
	}

	c.FillRect(b.Rect, colors.bg)
	c.StrokeRect(b.Rect, colors.border, 1)

	center := image.Pt(b.Rect.Min.X+b.Rect.Dx()/2, b.Rect.Min.Y+b.Rect.Dy()/2)
	c.Text(b.Label, center, AnchorCenter, TextStyle{Scale: buttonTextScale, Color: colors.text, Thickness: 1})
}

// TextItem is a line of text positioned by its baseline-left point
type TextItem struct {
	Text  string
	At    image.Point
	Style TextStyle
}

func drawText(c Canvas, t TextItem) {
	c.Text(t.Text, t.At, AnchorBaseline, t.Style)
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
