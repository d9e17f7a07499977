package lots

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNum(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "us format", input: "12,686.51", want: 12686.51, ok: true},
		{name: "european format", input: "12.686,51", want: 12686.51, ok: true},
		{name: "decimal comma", input: "4,15", want: 4.15, ok: true},
		{name: "decimal point", input: "4.15", want: 4.15, ok: true},
		{name: "plain integer", input: "1234", want: 1234, ok: true},
		{name: "multiple thousands groups", input: "1.234.567,89", want: 1234567.89, ok: true},
		{name: "leading whitespace", input: "  7.5", want: 7.5, ok: true},
		{name: "internal spaces", input: "1 234,5", want: 1234.5, ok: true},
		{name: "negative", input: "-3,25", want: -3.25, ok: true},
		{name: "empty", input: "", ok: false},
		{name: "whitespace only", input: "   ", ok: false},
		{name: "not a number", input: "n/a", ok: false},
		{name: "bare separator", input: ",", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNum(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

// Comma-only input with three trailing digits is genuinely ambiguous; the
// last separator wins, so it reads as a decimal comma.
func TestParseNumCommaAmbiguity(t *testing.T) {
	got, ok := ParseNum("1,234")
	require.True(t, ok)
	assert.InDelta(t, 1.234, got, 1e-9)
}

func TestMetricUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Metric
	}{
		{name: "number", input: `12.5`, want: Num(12.5)},
		{name: "zero is present", input: `0`, want: Num(0)},
		{name: "numeric string", input: `"12.686,51"`, want: Num(12686.51)},
		{name: "null", input: `null`, want: Metric{}},
		{name: "empty string", input: `""`, want: Metric{}},
		{name: "garbage string degrades to absent", input: `"abc"`, want: Metric{}},
		{name: "object degrades to absent", input: `{"v":1}`, want: Metric{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metric
			err := json.Unmarshal([]byte(tt.input), &m)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Present, m.Present)
			assert.InDelta(t, tt.want.Value, m.Value, 1e-9)
		})
	}
}

func TestMetricMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Num(4.15))
	require.NoError(t, err)
	assert.Equal(t, "4.15", string(b))

	b, err = json.Marshal(Metric{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestMetricOr0AndPtr(t *testing.T) {
	assert.Equal(t, 0.0, Metric{}.Or0())
	assert.Nil(t, Metric{}.Ptr())

	m := Num(3.5)
	assert.Equal(t, 3.5, m.Or0())
	require.NotNil(t, m.Ptr())
	assert.Equal(t, 3.5, *m.Ptr())
}
