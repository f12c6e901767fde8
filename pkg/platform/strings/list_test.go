package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      string
		expected []string
	}{
		{name: "empty", input: "", sep: ",", expected: nil},
		{name: "blank", input: "   ", sep: ",", expected: nil},
		{name: "single", input: "localhost:9092", sep: ",", expected: []string{"localhost:9092"}},
		{
			name:     "trims and drops empties",
			input:    " a:9092 ,, b:9092 ,",
			sep:      ",",
			expected: []string{"a:9092", "b:9092"},
		},
		{
			name:     "dedupes preserving order",
			input:    "CLINIC USSD APP,PUBLIC USSD APP,CLINIC USSD APP",
			sep:      ",",
			expected: []string{"CLINIC USSD APP", "PUBLIC USSD APP"},
		},
		{name: "other separator", input: "x;y", sep: ";", expected: []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input, tt.sep))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Equal(t, []string{}, DedupeAndTrim([]string{}))
	assert.Equal(t, []string{"foo", "bar"}, DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  ", "bar"}))
}
