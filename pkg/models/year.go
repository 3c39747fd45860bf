package models

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Year keeps both representations a year cell can have.
//
// A cell whose leading text reads as a floating-point number ("1902",
// "1902.0", "1920s") is numeric; anything else ("ca. 1920", "n.d.")
// stays a plain string. Equality filtering compares against whichever
// representation was stored, so the two kinds never match each other.
type Year struct {
	Raw     string
	Value   float64
	Numeric bool
}

// floatPrefix matches the longest leading decimal literal, the way
// a lenient float reader does.
var floatPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|\d+\.?\d*(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?)`)

// ParseYear classifies a raw year cell. Empty input yields the zero Year.
func ParseYear(raw string) Year {
	if raw == "" {
		return Year{}
	}
	lit := floatPrefix.FindString(strings.TrimLeftFunc(raw, unicode.IsSpace))
	if lit == "" {
		return Year{Raw: raw}
	}
	return Year{Raw: raw, Value: parseFloatLiteral(lit), Numeric: true}
}

func parseFloatLiteral(lit string) float64 {
	if strings.TrimLeft(lit, "+-") == "Infinity" {
		if strings.HasPrefix(lit, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	// The literal is syntactically valid, so the only possible error is
	// ErrRange, for which ParseFloat already returns ±Inf or 0.
	v, _ := strconv.ParseFloat(lit, 64)
	return v
}

// NumericYear builds a numeric Year from an integer.
func NumericYear(y int) Year {
	return Year{Raw: strconv.Itoa(y), Value: float64(y), Numeric: true}
}

// IsZero reports whether the cell was empty.
func (y Year) IsZero() bool {
	return y.Raw == "" && !y.Numeric
}

// Int returns the year truncated to an integer. Non-numeric, zero and
// infinite values report false.
func (y Year) Int() (int, bool) {
	if !y.Numeric || y.Value == 0 || math.IsInf(y.Value, 0) || math.IsNaN(y.Value) {
		return 0, false
	}
	return int(math.Trunc(y.Value)), true
}

// Equal compares two years by their stored representation.
func (y Year) Equal(o Year) bool {
	if y.Numeric != o.Numeric {
		return false
	}
	if y.Numeric {
		return y.Value == o.Value
	}
	return y.Raw == o.Raw
}

// String is the display form: the integer year for numeric cells,
// the raw text otherwise.
func (y Year) String() string {
	if n, ok := y.Int(); ok {
		return strconv.Itoa(n)
	}
	if y.Numeric {
		return strconv.FormatFloat(y.Value, 'f', -1, 64)
	}
	return y.Raw
}

// MarshalJSON writes numeric years as JSON numbers and everything else
// as strings.
func (y Year) MarshalJSON() ([]byte, error) {
	if y.Numeric && !math.IsInf(y.Value, 0) && !math.IsNaN(y.Value) {
		return []byte(strconv.FormatFloat(y.Value, 'f', -1, 64)), nil
	}
	return json.Marshal(y.Raw)
}

// UnmarshalJSON accepts a number, a string or null. Strings are kept as
// strings; they are not reclassified.
func (y *Year) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*y = Year{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*y = Year{Raw: raw}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*y = Year{Raw: strconv.FormatFloat(v, 'f', -1, 64), Value: v, Numeric: true}
	return nil
}
