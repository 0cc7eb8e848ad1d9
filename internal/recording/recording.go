// Package recording reads and writes recorded-step files: a JSON list of
// element signatures, or a single signature object.
package recording

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mj1618/desktop-replay/internal/model"
)

// ErrIndexOutOfRange is returned when a step index is past either end of the list.
var ErrIndexOutOfRange = errors.New("step index out of range")

// Step is one loaded recording entry with its position in the file.
type Step struct {
	Signature *model.RecordedSignature
	Index     int
	Total     int
}

// LoadAll reads every step in a recording file. Missing files wrap fs.ErrNotExist.
func LoadAll(path string) ([]model.RecordedSignature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	steps, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return steps, nil
}

// Decode parses a recording. A single object is a one-step list.
func Decode(data []byte) ([]model.RecordedSignature, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty recording")
	}
	if data[0] == '{' {
		var one model.RecordedSignature
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("parsing recording: %w", err)
		}
		return []model.RecordedSignature{one}, nil
	}
	var steps []model.RecordedSignature
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("parsing recording: %w", err)
	}
	return steps, nil
}

// Load returns the step at index. A negative index selects the last step.
func Load(path string, index int) (Step, error) {
	steps, err := LoadAll(path)
	if err != nil {
		return Step{}, err
	}
	return Select(steps, index)
}

// Select picks one step from a loaded list.
func Select(steps []model.RecordedSignature, index int) (Step, error) {
	idx := index
	if idx < 0 {
		idx = len(steps) - 1
	}
	if idx < 0 || idx >= len(steps) {
		return Step{}, fmt.Errorf("%w: index %d, valid range 0..%d", ErrIndexOutOfRange, index, len(steps)-1)
	}
	sig := steps[idx]
	return Step{Signature: &sig, Index: idx, Total: len(steps)}, nil
}

// Save writes steps as an indented JSON list, keeping non-ASCII text as is.
func Save(path string, steps []model.RecordedSignature) error {
	if steps == nil {
		steps = []model.RecordedSignature{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(steps); err != nil {
		return fmt.Errorf("encoding recording: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing recording: %w", err)
	}
	return nil
}
