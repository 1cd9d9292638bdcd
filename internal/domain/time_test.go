package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{name: "epoch millis", input: "1700000000000", expected: time.UnixMilli(1700000000000).UTC()},
		{name: "rfc3339", input: "2024-05-01T10:00:00Z", expected: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "date only", input: "2024-05-01", expected: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", expected: time.Time{}},
		{name: "garbage", input: "next tuesday", expected: time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.expected.Equal(ParseTimestamp(tc.input)))
		})
	}
}
