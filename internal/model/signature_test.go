package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inspectorEntry = `{
  "role": "AXButton",
  "title": "Send",
  "best_label": "send",
  "frame": {"x": 100, "y": 200, "w": 80, "h": 24},
  "click_frac": {"fx": 0.25, "fy": 0.5},
  "parent_chain": [{"role": "AXButton", "title": "Send"}, {"role": "AXGroup", "title": null}],
  "pid": null,
  "screen": {"id": 1, "name": "Built-in"},
  "AXTitle": "Send",
  "schema_version": "1.0",
  "click_index": 3
}`

func TestRecordedSignature_KeepsUnknownFields(t *testing.T) {
	var rec RecordedSignature
	require.NoError(t, json.Unmarshal([]byte(inspectorEntry), &rec))

	assert.Equal(t, "AXButton", rec.Role)
	assert.Equal(t, &Fraction{FX: 0.25, FY: 0.5}, rec.ClickFrac)
	assert.Equal(t, 3, rec.ClickIndex)
	assert.Len(t, rec.ParentChain, 2)
	assert.Contains(t, rec.Extra, "screen")
	assert.Contains(t, rec.Extra, "AXTitle")
	assert.NotContains(t, rec.Extra, "role")

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var back map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &back))
	assert.JSONEq(t, `{"id": 1, "name": "Built-in"}`, string(back["screen"]))
	assert.JSONEq(t, `"Send"`, string(back["AXTitle"]))
	assert.JSONEq(t, `"AXButton"`, string(back["role"]))
}

func TestRecordedSignature_KnownFieldWinsOverExtra(t *testing.T) {
	rec := RecordedSignature{Role: "AXLink", Extra: map[string]json.RawMessage{"role": json.RawMessage(`"AXButton"`)}}
	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"role":"AXLink"`)
}

func TestRecordedLabel(t *testing.T) {
	tests := []struct {
		name string
		rec  RecordedSignature
		want string
	}{
		{"best label", RecordedSignature{BestLabel: " Inbox ", Title: "x"}, "Inbox"},
		{"title when label trivial", RecordedSignature{BestLabel: "0.0", Title: "Compose"}, "Compose"},
		{"parent chain", RecordedSignature{ParentChain: []ParentRef{{Title: ""}, {Title: "Toolbar"}}}, "Toolbar"},
		{"raw labels", RecordedSignature{RawLabels: &RawLabels{Help: "Opens settings"}}, "Opens settings"},
		{"nothing", RecordedSignature{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.RecordedLabel())
		})
	}
}

func TestAppLabelAndCoordinates(t *testing.T) {
	rec := RecordedSignature{App: "Finder", Coordinates: []float64{12, 34}}
	assert.Equal(t, "Finder", rec.AppLabel())
	rec.AppName = "Safari"
	assert.Equal(t, "Safari", rec.AppLabel())

	p, ok := rec.CoordinatesPoint()
	assert.True(t, ok)
	assert.Equal(t, Point{X: 12, Y: 34}, p)

	_, ok = (&RecordedSignature{Coordinates: []float64{1}}).CoordinatesPoint()
	assert.False(t, ok)
}
