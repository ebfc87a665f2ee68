package handler

import (
	"bytes"
	"encoding/json"
)

// durationText holds a minutes or seconds field as the text the client sent.
// JSON numbers and strings are both accepted; the timer parses the text
// leniently, so anything that is not an integer counts as zero.
type durationText string

func (d *durationText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			text = ""
		}
		*d = durationText(text)
	case bytes.Equal(data, []byte("null")):
		*d = ""
	default:
		*d = durationText(data)
	}
	return nil
}
