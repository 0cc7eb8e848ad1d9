package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	default:
		return "left"
	}
}

func parseFloats(s string, n int, what string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("invalid %s %q: expected %d comma-separated numbers", what, s, n)
	}
	vals := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", what, s, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// ParseBBox parses a "x,y,w,h" string into a Rect.
func ParseBBox(s string) (*model.Rect, error) {
	v, err := parseFloats(s, 4, "bbox")
	if err != nil {
		return nil, err
	}
	return &model.Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}
