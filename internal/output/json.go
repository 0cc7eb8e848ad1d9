package output

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes v as JSON terminated by a newline. If pretty is true,
// uses indentation; otherwise single-line. HTML characters are not escaped.
func MarshalJSON(v interface{}, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return buf.Bytes(), nil
}

// PrintJSON serializes v to Stdout as JSON.
func PrintJSON(v interface{}, pretty bool) error {
	return Fprint(Stdout, FormatJSON, pretty, v)
}
