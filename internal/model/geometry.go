package model

import (
	"fmt"
	"math"
)

// Point is a screen coordinate in points.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Rect is a screen rectangle: origin plus width and height.
type Rect struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

// Fraction is a position expressed relative to a window's width and height.
type Fraction struct {
	FX float64 `yaml:"fx" json:"fx"`
	FY float64 `yaml:"fy" json:"fy"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

func (r Rect) String() string {
	return fmt.Sprintf("[x=%.1f y=%.1f w=%.1f h=%.1f]", r.X, r.Y, r.W, r.H)
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Intersects reports whether r and o overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return !(r.X+r.W < o.X || r.X > o.X+o.W || r.Y+r.H < o.Y || r.Y > o.Y+o.H)
}

// Diagonal returns the length of r's diagonal.
func (r Rect) Diagonal() float64 {
	return math.Hypot(r.W, r.H)
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// At returns the absolute point at fraction f of r.
func (r Rect) At(f Fraction) Point {
	return Point{X: r.X + f.FX*r.W, Y: r.Y + f.FY*r.H}
}

// FractionOf expresses p relative to r. Zero-sized axes yield 0.
func (r Rect) FractionOf(p Point) Fraction {
	var f Fraction
	if r.W != 0 {
		f.FX = (p.X - r.X) / r.W
	}
	if r.H != 0 {
		f.FY = (p.Y - r.Y) / r.H
	}
	return f
}

// Dist is the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// RectFromBounds converts an integer [x, y, w, h] array.
func RectFromBounds(b [4]int) Rect {
	return Rect{X: float64(b[0]), Y: float64(b[1]), W: float64(b[2]), H: float64(b[3])}
}

// Bounds converts r to a rounded [x, y, w, h] array.
func (r Rect) Bounds() [4]int {
	return [4]int{int(math.Round(r.X)), int(math.Round(r.Y)), int(math.Round(r.W)), int(math.Round(r.H))}
}
