// Package overlay renders resolution diagnostics as an annotated PNG: the
// live window, the predicted seed, every candidate point tried, the final
// element and the point that was acted on.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/mj1618/desktop-replay/internal/model"
)

// MaxSide caps the longest side of the rendered image in pixels.
const MaxSide = 1200

// Scene is everything drawn on one diagnostic image. Coordinates are screen
// points; Window defines the visible area.
type Scene struct {
	Window     model.Rect
	Predicted  *model.Point
	Candidates []model.Point
	Final      *model.Point
	Element    *model.Rect
	Title      string
	// Background, when set, is scaled to fill the window area, e.g. a
	// screenshot of the window.
	Background image.Image
}

var (
	backgroundColor = color.RGBA{R: 32, G: 32, B: 36, A: 255}
	windowColor     = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	elementColor    = color.RGBA{R: 0, G: 200, B: 90, A: 255}
	predictedColor  = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	candidateColor  = color.RGBA{R: 80, G: 150, B: 255, A: 255}
	finalColor      = color.RGBA{R: 255, G: 40, B: 40, A: 255}
	textColor       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor    = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Render draws s. A window without area yields an error.
func Render(s Scene) (*image.RGBA, error) {
	if s.Window.W <= 0 || s.Window.H <= 0 {
		return nil, fmt.Errorf("overlay: window has no area (%.0fx%.0f)", s.Window.W, s.Window.H)
	}
	scale := 1.0
	if longest := max(s.Window.W, s.Window.H); longest > MaxSide {
		scale = MaxSide / longest
	}
	w := int(s.Window.W * scale)
	h := int(s.Window.H * scale)
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, xdraw.Src)
	if s.Background != nil {
		xdraw.ApproxBiLinear.Scale(img, img.Bounds(), s.Background, s.Background.Bounds(), xdraw.Over, nil)
	}

	c := canvas{img: img, origin: model.Point{X: s.Window.X, Y: s.Window.Y}, scale: scale}
	drawRectangle(img, 0, 0, w, h, windowColor)
	if s.Title != "" {
		drawText(img, s.Title, 4, 14, textColor, outlineColor)
	}
	if s.Element != nil {
		c.box(*s.Element, elementColor)
	}
	for i, p := range s.Candidates {
		c.cross(p, 3, candidateColor)
		c.label(p, fmt.Sprintf("%d", i+1), 6, -6)
	}
	if s.Predicted != nil {
		c.cross(*s.Predicted, 6, predictedColor)
		c.label(*s.Predicted, "predicted", 8, 14)
	}
	if s.Final != nil {
		c.cross(*s.Final, 8, finalColor)
		c.label(*s.Final, fmt.Sprintf("(%.0f,%.0f)", s.Final.X, s.Final.Y), 10, -10)
	}
	return img, nil
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return nil
}

// WriteFile renders s and writes it to path.
func WriteFile(path string, s Scene) error {
	img, err := Render(s)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// canvas maps screen points into image pixels.
type canvas struct {
	img    *image.RGBA
	origin model.Point
	scale  float64
}

func (c canvas) px(p model.Point) (int, int) {
	return int((p.X - c.origin.X) * c.scale), int((p.Y - c.origin.Y) * c.scale)
}

func (c canvas) box(r model.Rect, col color.Color) {
	x1, y1 := c.px(model.Point{X: r.X, Y: r.Y})
	x2, y2 := c.px(model.Point{X: r.X + r.W, Y: r.Y + r.H})
	drawRectangle(c.img, x1, y1, x2, y2, col)
	drawRectangle(c.img, x1+1, y1+1, x2-1, y2-1, col)
}

func (c canvas) cross(p model.Point, arm int, col color.Color) {
	x, y := c.px(p)
	bounds := c.img.Bounds()
	for d := -arm; d <= arm; d++ {
		if isWithinBounds(bounds, x+d, y) {
			c.img.Set(x+d, y, col)
		}
		if isWithinBounds(bounds, x, y+d) {
			c.img.Set(x, y+d, col)
		}
	}
}

func (c canvas) label(p model.Point, text string, dx, dy int) {
	x, y := c.px(p)
	drawText(c.img, text, x+dx, y+dy, textColor, outlineColor)
}
