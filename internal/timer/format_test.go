package timer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMillis(t *testing.T) {
	cases := map[int64]string{
		0:         "00:00",
		999:       "00:00",
		1000:      "00:01",
		59000:     "00:59",
		60000:     "01:00",
		90000:     "01:30",
		1500000:   "25:00",
		6000000:   "100:00",
		-1000:     "00:00",
		3599999:   "59:59",
		3600000:   "60:00",
		61 * 1000: "01:01",
	}
	for ms, want := range cases {
		assert.Equal(t, want, FormatMillis(ms), "ms=%d", ms)
	}
}

func TestParseLenient(t *testing.T) {
	assert.Equal(t, 25, ParseLenient("25"))
	assert.Equal(t, 7, ParseLenient(" 7 "))
	assert.Equal(t, 0, ParseLenient(""))
	assert.Equal(t, 0, ParseLenient("12abc"))
	assert.Equal(t, 0, ParseLenient("1.5"))
	assert.Equal(t, -3, ParseLenient("-3"))
}

func TestStateText(t *testing.T) {
	raw, err := json.Marshal(Snapshot{State: Paused})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"state":"paused"`)

	var s State
	require.NoError(t, s.UnmarshalText([]byte("finished")))
	assert.Equal(t, Finished, s)
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
	assert.Equal(t, "state(9)", State(9).String())
}
