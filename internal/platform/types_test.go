package platform

import (
	"testing"

	"github.com/mj1618/desktop-replay/internal/model"
)

func TestParseBBox_Valid(t *testing.T) {
	for _, s := range []string{"10,20,300,400", "10, 20, 300, 400"} {
		b, err := ParseBBox(s)
		if err != nil {
			t.Fatal(err)
		}
		if *b != (model.Rect{X: 10, Y: 20, W: 300, H: 400}) {
			t.Errorf("ParseBBox(%q) = %+v", s, b)
		}
	}
}

func TestParseBBox_Invalid(t *testing.T) {
	tests := []string{
		"",
		"10,20,300",
		"10,20,300,400,500",
		"a,b,c,d",
		"10,20,abc,400",
	}
	for _, s := range tests {
		if _, err := ParseBBox(s); err == nil {
			t.Errorf("ParseBBox(%q) should fail", s)
		}
	}
}

func TestMouseButton_String(t *testing.T) {
	if MouseRight.String() != "right" || MouseLeft.String() != "left" {
		t.Error("unexpected MouseButton names")
	}
}
