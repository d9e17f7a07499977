package lots

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNum parses a locale-ambiguous numeric string into a float.
//
// Disambiguation rule: when both separators appear, whichever occurs last in
// the string is the decimal point and the other is stripped as a thousands
// separator. A string with only commas reads the last comma as a decimal
// comma ("4,15" -> 4.15). That last case is a heuristic with genuinely
// ambiguous inputs ("1,234" parses as 1.234, not 1234); it matches how the
// upstream sheets are formatted and is kept as a known limitation.
func ParseNum(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, " ", "")

	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	decimalAt := -1
	switch {
	case lastComma >= 0 && lastDot >= 0:
		decimalAt = max(lastComma, lastDot)
	case lastComma >= 0:
		decimalAt = lastComma
	case lastDot >= 0:
		decimalAt = lastDot
	}

	if decimalAt >= 0 {
		var b strings.Builder
		b.Grow(len(s))
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c == ',' || c == '.' {
				if i == decimalAt {
					b.WriteByte('.')
				}
				continue
			}
			b.WriteByte(c)
		}
		s = b.String()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Metric is a numeric cell that may arrive as a JSON number, a
// locale-formatted string, or nothing at all. Zero-with-Present is a real
// data point; absent must not feed a weighted average or a range filter.
type Metric struct {
	Value   float64
	Present bool
}

// Num builds a present Metric. Used by repositories and tests.
func Num(v float64) Metric {
	return Metric{Value: v, Present: true}
}

// Or0 returns the value for display/aggregation, zero when absent.
func (m Metric) Or0() float64 {
	if !m.Present {
		return 0
	}
	return m.Value
}

// Ptr returns the value for filter logic, nil when absent.
func (m Metric) Ptr() *float64 {
	if !m.Present {
		return nil
	}
	v := m.Value
	return &v
}

// UnmarshalJSON tolerates numbers, numeric strings and null. A malformed
// string degrades to absent rather than failing the whole row.
func (m *Metric) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*m = Metric{}
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			*m = Metric{}
			return nil
		}
		*m = Metric{Value: f, Present: true}
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		v, ok := ParseNum(str)
		*m = Metric{Value: v, Present: ok}
		return nil
	}

	*m = Metric{}
	return nil
}

// MarshalJSON renders absent cells as null so clients can tell "0" from
// "no measurement".
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Present {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}
