package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a leniently decoded numeric field. Numbers, numeric strings and
// null are accepted; anything else reads as absent so the default applies.
type Number struct {
	raw string
}

// NumberOf builds a present Number from any numeric value or numeric string.
func NumberOf(v any) Number {
	var n Number
	n.parse(fmt.Sprint(v))
	return n
}

func (n *Number) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		n.raw = ""
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			n.raw = ""
			return nil
		}
		text = s
	}
	n.parse(text)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n.raw == "" {
		return []byte("null"), nil
	}
	return []byte(n.raw), nil
}

func (n *Number) parse(text string) {
	text = strings.TrimSpace(text)
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		n.raw = ""
		return
	}
	n.raw = text
}

func (n Number) Present() bool {
	return n.raw != ""
}

func (n Number) Float(def float64) float64 {
	if !n.Present() {
		return def
	}
	f, _ := strconv.ParseFloat(n.raw, 64)
	return f
}

func (n Number) Int(def int) int {
	if v, ok := n.Int64(); ok && v >= math.MinInt32 && v <= math.MaxInt32 {
		return int(v)
	}
	if n.Present() {
		f := n.Float(float64(def))
		switch {
		case f > math.MaxInt32:
			return math.MaxInt32
		case f < math.MinInt32:
			return math.MinInt32
		}
		return int(f)
	}
	return def
}

// Int64 returns the value truncated to an integer when it fits in int64.
func (n Number) Int64() (int64, bool) {
	if !n.Present() {
		return 0, false
	}
	if v, err := strconv.ParseInt(n.raw, 10, 64); err == nil {
		return v, true
	}
	f, _ := strconv.ParseFloat(n.raw, 64)
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// Uint64 returns the value truncated to an integer when it is non-negative
// and fits in uint64.
func (n Number) Uint64() (uint64, bool) {
	if !n.Present() {
		return 0, false
	}
	if v, err := strconv.ParseUint(n.raw, 10, 64); err == nil {
		return v, true
	}
	f, _ := strconv.ParseFloat(n.raw, 64)
	if f < 0 || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

// Flag is a leniently decoded boolean: true/false, "true"/"false"/"1"/"0", numbers and null.
type Flag struct {
	value bool
	set   bool
}

func FlagOf(v bool) Flag {
	return Flag{value: v, set: true}
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag{}
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return nil
	}

	switch v := decoded.(type) {
	case bool:
		*f = FlagOf(v)
	case float64:
		*f = FlagOf(v != 0)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			*f = FlagOf(true)
		case "false", "0", "no", "off", "":
			*f = FlagOf(false)
		}
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f Flag) On() bool {
	return f.value
}
