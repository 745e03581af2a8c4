package espn

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CoerceFloat turns the loosely typed numbers ESPN serves into float64.
// Numbers pass through, strings go through the display-value rules in
// coerceString, anything else is 0. This function never fails; bad input
// is worth 0, not an aborted ingest.
func CoerceFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return coerceString(n)
	default:
		return 0
	}
}

// coerceString parses ESPN display strings. Placeholders ("", "-", "N/A")
// mean zero. A trailing percent sign is dropped and the prefix kept as-is;
// "48.3%" is 48.3, not 0.483.
func coerceString(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "N/A":
		return 0
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	if strings.HasSuffix(s, "%") {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64); err == nil {
			return f
		}
	}

	return 0
}

// FlexFloat decodes JSON fields that flip between number and quoted-string
// encodings across endpoints. Decoding never errors; unusable input is 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexFloat(coerceString(s))
		return nil
	}

	*f = 0
	return nil
}
