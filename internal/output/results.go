package output

import (
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
)

// StepLine is one recording entry in the `steps` summary.
type StepLine struct {
	Index  int    `yaml:"i"                json:"i"`
	Action string `yaml:"action"           json:"action"`
	Role   string `yaml:"role,omitempty"   json:"role,omitempty"`
	Label  string `yaml:"label,omitempty"  json:"label,omitempty"`
	App    string `yaml:"app,omitempty"    json:"app,omitempty"`
	Window string `yaml:"window,omitempty" json:"window,omitempty"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// StepsSummary is the output of the `steps` command.
type StepsSummary struct {
	File  string     `yaml:"file,omitempty" json:"file,omitempty"`
	Total int        `yaml:"total"          json:"total"`
	Steps []StepLine `yaml:"steps"          json:"steps"`
}

// Summarize lists steps one line each. Steps without an action are clicks.
func Summarize(file string, steps []model.RecordedSignature) StepsSummary {
	s := StepsSummary{File: file, Total: len(steps), Steps: make([]StepLine, 0, len(steps))}
	for i := range steps {
		rec := &steps[i]
		line := StepLine{
			Index:  i,
			Action: strings.ToLower(strings.TrimSpace(rec.Action)),
			Role:   rec.Role,
			Label:  rec.RecordedLabel(),
			App:    rec.AppLabel(),
			Window: rec.WindowTitle,
		}
		if line.Action == "" {
			line.Action = "click"
		}
		switch {
		case line.Action == "type":
			line.Detail = rec.Text
		case line.Action == "key":
			line.Detail = rec.Key
		case strings.EqualFold(rec.Button, "right"):
			line.Detail = "right button"
		}
		s.Steps = append(s.Steps, line)
	}
	return s
}

// ReplayStep is the outcome of one replayed step.
type ReplayStep struct {
	Index    int          `yaml:"i"                  json:"i"`
	Label    string       `yaml:"label,omitempty"    json:"label,omitempty"`
	Success  bool         `yaml:"success"            json:"success"`
	Method   string       `yaml:"method,omitempty"   json:"method,omitempty"`
	Stage    string       `yaml:"stage,omitempty"    json:"stage,omitempty"`
	Source   string       `yaml:"source,omitempty"   json:"source,omitempty"`
	Attempts int          `yaml:"attempts"           json:"attempts"`
	Point    *model.Point `yaml:"point,omitempty"    json:"point,omitempty"`
	Error    string       `yaml:"error,omitempty"    json:"error,omitempty"`
}

// ReplayReport is the output of the `replay` command.
type ReplayReport struct {
	File      string       `yaml:"file"      json:"file"`
	Total     int          `yaml:"total"     json:"total"`
	Succeeded int          `yaml:"succeeded" json:"succeeded"`
	Failed    int          `yaml:"failed"    json:"failed"`
	Stopped   bool         `yaml:"stopped,omitempty" json:"stopped,omitempty"`
	Steps     []ReplayStep `yaml:"steps"     json:"steps"`
}

// Add appends a step outcome and updates the counters.
func (r *ReplayReport) Add(s ReplayStep) {
	r.Steps = append(r.Steps, s)
	if s.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// TreeResult is the output of the `tree` command.
type TreeResult struct {
	App      string              `yaml:"app,omitempty"    json:"app,omitempty"`
	PID      int                 `yaml:"pid,omitempty"    json:"pid,omitempty"`
	Window   string              `yaml:"window,omitempty" json:"window,omitempty"`
	TS       int64               `yaml:"ts"               json:"ts"`
	Elements []model.FlatElement `yaml:"elements"         json:"elements"`
}

// AppEntry is one line of `list --apps`.
type AppEntry struct {
	App      string `yaml:"app"                 json:"app"`
	PID      int    `yaml:"pid"                 json:"pid"`
	BundleID string `yaml:"bundle_id,omitempty" json:"bundle_id,omitempty"`
	Front    bool   `yaml:"frontmost,omitempty" json:"frontmost,omitempty"`
}

// ErrorResult reports a failed command in the current output format.
type ErrorResult struct {
	OK    bool   `yaml:"ok"              json:"ok"`
	Error string `yaml:"error"           json:"error"`
	Stage string `yaml:"stage,omitempty" json:"stage,omitempty"`
}

// AppEntries converts running applications to list lines, flagging the
// frontmost one.
func AppEntries(apps []model.App, frontPID int) []AppEntry {
	out := make([]AppEntry, 0, len(apps))
	for _, a := range apps {
		out = append(out, AppEntry{App: a.Name, PID: a.PID, BundleID: a.BundleID, Front: a.PID == frontPID})
	}
	return out
}
