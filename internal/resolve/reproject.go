package resolve

import (
	"fmt"

	"github.com/mj1618/desktop-replay/internal/model"
)

// Alignment compares the recorded window frame with the live one.
type Alignment struct {
	DX float64 `yaml:"dx" json:"dx"`
	DY float64 `yaml:"dy" json:"dy"`
	SX float64 `yaml:"sx" json:"sx"`
	SY float64 `yaml:"sy" json:"sy"`

	PositionAligned bool `yaml:"position_aligned" json:"position_aligned"`
	SizeAligned     bool `yaml:"size_aligned"     json:"size_aligned"`

	// Mode is "fractions" when a click fraction drives prediction,
	// otherwise "delta+scale".
	Mode string `yaml:"mode" json:"mode"`
}

// Status is "pass" when both position and size agree, else "recover".
func (a Alignment) Status() string {
	if a.PositionAligned && a.SizeAligned {
		return "pass"
	}
	return "recover"
}

func (a Alignment) String() string {
	return fmt.Sprintf("Δ=(%.1f, %.1f) scale=(%.3f, %.3f) %s via %s", a.DX, a.DY, a.SX, a.SY, a.Status(), a.Mode)
}

// Align computes the translation and scale between recorded and live window
// frames. A zero recorded width or height scales by 1.
func Align(recorded, live model.Rect, hasFraction bool) Alignment {
	a := Alignment{
		DX: live.X - recorded.X,
		DY: live.Y - recorded.Y,
		SX: 1,
		SY: 1,
	}
	if recorded.W != 0 {
		a.SX = live.W / recorded.W
	}
	if recorded.H != 0 {
		a.SY = live.H / recorded.H
	}
	a.PositionAligned = abs(a.DX) <= PositionTolerance && abs(a.DY) <= PositionTolerance
	a.SizeAligned = abs(a.SX-1) <= SizeTolerance && abs(a.SY-1) <= SizeTolerance
	a.Mode = "delta+scale"
	if hasFraction {
		a.Mode = "fractions"
	}
	return a
}

// Reproject maps a point recorded against window recorded into window live
// by translating and scaling about the window origin.
func Reproject(p model.Point, recorded, live model.Rect) model.Point {
	sx, sy := 1.0, 1.0
	if recorded.W != 0 {
		sx = live.W / recorded.W
	}
	if recorded.H != 0 {
		sy = live.H / recorded.H
	}
	return model.Point{
		X: live.X + (p.X-recorded.X)*sx,
		Y: live.Y + (p.Y-recorded.Y)*sy,
	}
}

// ProjectFraction places f inside live. It fails when the result falls
// outside the window.
func ProjectFraction(f model.Fraction, live model.Rect) (model.Point, bool) {
	p := live.At(f)
	return p, live.Contains(p)
}
