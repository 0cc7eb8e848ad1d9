package overlay

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-replay/internal/model"
)

func sameColor(t *testing.T, want color.RGBA, got color.Color) {
	t.Helper()
	r, g, b, a := got.RGBA()
	wr, wg, wb, wa := want.RGBA()
	assert.Equal(t, [4]uint32{wr, wg, wb, wa}, [4]uint32{r, g, b, a})
}

func TestRender_MarksPoints(t *testing.T) {
	s := Scene{
		Window:     model.Rect{X: 100, Y: 100, W: 400, H: 300},
		Predicted:  &model.Point{X: 200, Y: 200},
		Candidates: []model.Point{{X: 300, Y: 150}},
		Final:      &model.Point{X: 350, Y: 250},
		Element:    &model.Rect{X: 320, Y: 230, W: 60, H: 40},
	}
	img, err := Render(s)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())

	sameColor(t, finalColor, img.At(250, 150))
	sameColor(t, predictedColor, img.At(100, 100))
	sameColor(t, candidateColor, img.At(200, 50))
	sameColor(t, elementColor, img.At(220, 130))
	sameColor(t, windowColor, img.At(0, 299))
	sameColor(t, backgroundColor, img.At(50, 250))
}

func TestRender_ScalesLargeWindows(t *testing.T) {
	img, err := Render(Scene{Window: model.Rect{W: 2400, H: 1200}, Final: &model.Point{X: 1200, Y: 600}})
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
	sameColor(t, finalColor, img.At(600, 300))
}

func TestRender_Background(t *testing.T) {
	bg := image.NewUniform(color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img, err := Render(Scene{Window: model.Rect{W: 100, H: 100}, Background: &boundedUniform{bg, image.Rect(0, 0, 50, 50)}})
	require.NoError(t, err)
	sameColor(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, img.At(50, 50))
}

func TestRender_EmptyWindow(t *testing.T) {
	_, err := Render(Scene{})
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.png")
	require.NoError(t, WriteFile(path, Scene{Window: model.Rect{W: 64, H: 48}, Title: "Send"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

type boundedUniform struct {
	*image.Uniform
	r image.Rectangle
}

func (b *boundedUniform) Bounds() image.Rectangle { return b.r }
