package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// SchemaVersion tags every recorded entry.
const SchemaVersion = "1.0"

// ParentRef is one (role, title) pair of a recorded parent chain, nearest first.
type ParentRef struct {
	Role  string `yaml:"role,omitempty"  json:"role,omitempty"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
}

// RawLabels are the individual label attributes captured at record time.
type RawLabels struct {
	Title       string `yaml:"title,omitempty"       json:"title,omitempty"`
	Value       string `yaml:"value,omitempty"       json:"value,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Help        string `yaml:"help,omitempty"        json:"help,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Identifier  string `yaml:"identifier,omitempty"  json:"identifier,omitempty"`
}

// RecordedSignature is the element descriptor captured at record time plus
// the step metadata stored alongside it. Fields a reader does not know are
// kept in Extra and written back unchanged.
type RecordedSignature struct {
	Role            string `yaml:"role,omitempty"             json:"role,omitempty"`
	Subrole         string `yaml:"subrole,omitempty"          json:"subrole,omitempty"`
	RoleDescription string `yaml:"role_description,omitempty" json:"role_description,omitempty"`
	Title           string `yaml:"title,omitempty"            json:"title,omitempty"`
	BestLabel       string `yaml:"best_label,omitempty"       json:"best_label,omitempty"`
	Description     string `yaml:"description,omitempty"      json:"description,omitempty"`
	Value           string `yaml:"value,omitempty"            json:"value,omitempty"`
	Help            string `yaml:"help,omitempty"             json:"help,omitempty"`
	Placeholder     string `yaml:"placeholder,omitempty"      json:"placeholder,omitempty"`
	Identifier      string `yaml:"identifier,omitempty"       json:"identifier,omitempty"`

	Frame           *Rect     `yaml:"frame,omitempty"            json:"frame,omitempty"`
	ActivationPoint *Point    `yaml:"activation_point,omitempty" json:"activation_point,omitempty"`
	ClickPoint      *Point    `yaml:"click_point,omitempty"      json:"click_point,omitempty"`
	RawClickPoint   *Point    `yaml:"raw_click_point,omitempty"  json:"raw_click_point,omitempty"`
	ClickFrac       *Fraction `yaml:"click_frac,omitempty"       json:"click_frac,omitempty"`

	WindowFrame *Rect       `yaml:"window_frame,omitempty" json:"window_frame,omitempty"`
	WindowTitle string      `yaml:"window_title,omitempty" json:"window_title,omitempty"`
	AppName     string      `yaml:"app_name,omitempty"     json:"app_name,omitempty"`
	App         string      `yaml:"app,omitempty"          json:"app,omitempty"`
	PID         int         `yaml:"pid,omitempty"          json:"pid,omitempty"`
	ParentChain []ParentRef `yaml:"parent_chain,omitempty" json:"parent_chain,omitempty"`
	RawLabels   *RawLabels  `yaml:"raw_labels,omitempty"   json:"raw_labels,omitempty"`
	Actions     []string    `yaml:"actions,omitempty"      json:"actions,omitempty"`
	Enabled     bool        `yaml:"enabled,omitempty"      json:"enabled,omitempty"`
	Focused     bool        `yaml:"focused,omitempty"      json:"focused,omitempty"`
	Clickable   bool        `yaml:"clickable,omitempty"    json:"clickable,omitempty"`

	Action      string    `yaml:"action,omitempty"      json:"action,omitempty"`
	Button      string    `yaml:"button,omitempty"      json:"button,omitempty"`
	Text        string    `yaml:"text,omitempty"        json:"text,omitempty"`
	Key         string    `yaml:"key,omitempty"         json:"key,omitempty"`
	Coordinates []float64 `yaml:"coordinates,omitempty" json:"coordinates,omitempty"`

	SchemaVersion string `yaml:"schema_version,omitempty" json:"schema_version,omitempty"`
	ClickIndex    int    `yaml:"click_index"              json:"click_index"`
	RecordedAt    string `yaml:"recorded_at,omitempty"    json:"recorded_at,omitempty"`

	Extra map[string]json.RawMessage `yaml:"-" json:"-"`
}

// recordedAlias drops the custom (un)marshalers.
type recordedAlias RecordedSignature

var (
	knownOnce sync.Once
	knownKeys map[string]bool
)

func recordedKeys() map[string]bool {
	knownOnce.Do(func() {
		knownKeys = make(map[string]bool)
		t := reflect.TypeOf(RecordedSignature{})
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if name != "" && name != "-" {
				knownKeys[name] = true
			}
		}
	})
	return knownKeys
}

// UnmarshalJSON decodes the known fields and keeps everything else in Extra.
func (r *RecordedSignature) UnmarshalJSON(data []byte) error {
	var a recordedAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	known := recordedKeys()
	for k, v := range all {
		if known[k] {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[k] = v
	}
	*r = RecordedSignature(a)
	return nil
}

// MarshalJSON writes the known fields and merges Extra back in. Known fields
// win over an Extra entry of the same name.
func (r RecordedSignature) MarshalJSON() ([]byte, error) {
	data, err := marshalNoEscape(recordedAlias(r))
	if err != nil || len(r.Extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, exists := all[k]; !exists {
			all[k] = v
		}
	}
	return marshalNoEscape(all)
}

// marshalNoEscape leaves <, > and & in labels as written.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// AppLabel returns the recorded application name from either field.
func (r *RecordedSignature) AppLabel() string {
	if r.AppName != "" {
		return r.AppName
	}
	return r.App
}

// RecordedLabel resolves the label used for comparison, skipping trivial
// values: best label or title, then parent chain titles nearest first, then
// the raw label attributes.
func (r *RecordedSignature) RecordedLabel() string {
	for _, s := range []string{r.BestLabel, r.Title} {
		if !IsTrivialLabel(s) {
			return strings.TrimSpace(s)
		}
	}
	for _, p := range r.ParentChain {
		if !IsTrivialLabel(p.Title) {
			return strings.TrimSpace(p.Title)
		}
	}
	if r.RawLabels != nil {
		raw := r.RawLabels
		for _, s := range []string{raw.Title, raw.Value, raw.Description, raw.Help, raw.Placeholder, raw.Identifier} {
			if !IsTrivialLabel(s) {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// CoordinatesPoint returns Coordinates as a point when two values are present.
func (r *RecordedSignature) CoordinatesPoint() (Point, bool) {
	if len(r.Coordinates) < 2 {
		return Point{}, false
	}
	return Point{X: r.Coordinates[0], Y: r.Coordinates[1]}, true
}
