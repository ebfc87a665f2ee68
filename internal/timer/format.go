package timer

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMillis renders ms as zero-padded MM:SS. Minutes are not capped at 59.
func FormatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// ParseLenient reads a whole number from user text. Anything that is not a
// plain integer counts as zero.
func ParseLenient(text string) int {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return value
}
