package resolve

import (
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
)

// DefaultPoint is the last-resort seed when a recording has window geometry
// but no usable point.
var DefaultPoint = model.Point{X: 100, Y: 100}

// Prediction is a seed point and the strategy that produced it.
type Prediction struct {
	Point  model.Point `yaml:"point"  json:"point"`
	Source string      `yaml:"source" json:"source"`
	// Direct marks container recordings replayed at their raw click point
	// without refinement.
	Direct bool `yaml:"direct,omitempty" json:"direct,omitempty"`
}

// predictor is one strategy of the ordered seed list. live is the current
// window frame, nil when unknown.
type predictor struct {
	name string
	fn   func(rec *model.RecordedSignature, live *model.Rect) (model.Point, bool)
}

func reprojected(anchor func(*model.RecordedSignature) *model.Point) func(*model.RecordedSignature, *model.Rect) (model.Point, bool) {
	return func(rec *model.RecordedSignature, live *model.Rect) (model.Point, bool) {
		p := anchor(rec)
		if p == nil || rec.WindowFrame == nil || live == nil {
			return model.Point{}, false
		}
		return Reproject(*p, *rec.WindowFrame, *live), true
	}
}

func absolute(anchor func(*model.RecordedSignature) *model.Point) func(*model.RecordedSignature, *model.Rect) (model.Point, bool) {
	return func(rec *model.RecordedSignature, _ *model.Rect) (model.Point, bool) {
		if p := anchor(rec); p != nil {
			return *p, true
		}
		return model.Point{}, false
	}
}

func frameCenter(rec *model.RecordedSignature) *model.Point {
	if rec.Frame == nil {
		return nil
	}
	c := rec.Frame.Center()
	return &c
}

func activationPoint(rec *model.RecordedSignature) *model.Point { return rec.ActivationPoint }
func clickPoint(rec *model.RecordedSignature) *model.Point      { return rec.ClickPoint }
func rawClickPoint(rec *model.RecordedSignature) *model.Point   { return rec.RawClickPoint }

// predictors is the seed order. Fractions come first because they survive
// resizes; absolute anchors are only used when window geometry is missing.
var predictors = []predictor{
	{"fraction", func(rec *model.RecordedSignature, live *model.Rect) (model.Point, bool) {
		if rec.ClickFrac == nil || live == nil {
			return model.Point{}, false
		}
		return ProjectFraction(*rec.ClickFrac, *live)
	}},
	{"frame_center", reprojected(frameCenter)},
	{"activation_point", reprojected(activationPoint)},
	{"click_point", reprojected(clickPoint)},
	{"absolute_frame_center", absolute(frameCenter)},
	{"absolute_activation_point", absolute(activationPoint)},
	{"absolute_click_point", absolute(clickPoint)},
	{"absolute_raw_click_point", absolute(rawClickPoint)},
	{"window_center", func(_ *model.RecordedSignature, live *model.Rect) (model.Point, bool) {
		if live == nil {
			return model.Point{}, false
		}
		return live.Center(), true
	}},
	{"default", func(rec *model.RecordedSignature, _ *model.Rect) (model.Point, bool) {
		return DefaultPoint, rec.WindowFrame != nil
	}},
}

// IsDirectClick reports a container recording that is replayed at its raw
// click point.
func IsDirectClick(rec *model.RecordedSignature) bool {
	if rec.RawClickPoint == nil {
		return false
	}
	return model.DirectClickRoles.Has(rec.Role) || strings.Contains(strings.ToLower(rec.BestLabel), "scroll")
}

// Predict picks the seed point for rec given the live window frame.
func Predict(rec *model.RecordedSignature, live *model.Rect) (Prediction, error) {
	if IsDirectClick(rec) {
		return Prediction{Point: *rec.RawClickPoint, Source: "raw_click_point", Direct: true}, nil
	}
	for _, p := range predictors {
		if pt, ok := p.fn(rec, live); ok {
			return Prediction{Point: pt, Source: p.name}, nil
		}
	}
	return Prediction{}, stageErr(StagePredict, ErrNoAnchor, "recording has no frame, point or window geometry and no live window is known")
}
