package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/backend/internal/timer"
)

func TestDurationTextDecoding(t *testing.T) {
	cases := map[string]int{
		`{"minutes": 25}`:    25,
		`{"minutes": "25"}`:  25,
		`{"minutes": " 7 "}`: 7,
		`{"minutes": "abc"}`: 0,
		`{"minutes": 1.5}`:   0,
		`{"minutes": null}`:  0,
		`{"minutes": ""}`:    0,
		`{"minutes": "-3"}`:  -3,
		`{"seconds": 30}`:    0,
		`{"minutes": true}`:  0,
		`{"minutes": [1]}`:   0,
	}
	for body, want := range cases {
		t.Run(body, func(t *testing.T) {
			var req durationRequest
			require.NoError(t, json.Unmarshal([]byte(body), &req))
			assert.Equal(t, want, timer.ParseLenient(string(req.Minutes)))
		})
	}
}
