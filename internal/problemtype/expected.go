package problemtype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Expected is a decoded expected output. Only the field matching Kind is meaningful.
type Expected struct {
	Kind OutputKind
	Ints []int
	Bool bool
	Text string
}

// String is the display form returned to clients as expectedOutput.
func (e Expected) String() string {
	switch e.Kind {
	case IntArray:
		return FormatInts(e.Ints)
	case Boolean:
		return strconv.FormatBool(e.Bool)
	case Text:
		return e.Text
	}
	return ""
}

// DecodeExpected decodes a raw expected output according to d.Output.
func (d Descriptor) DecodeExpected(raw json.RawMessage) (Expected, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Expected{}, fmt.Errorf("expectedOutput is required")
	}

	exp := Expected{Kind: d.Output}
	switch d.Output {
	case IntArray:
		if err := json.Unmarshal(raw, &exp.Ints); err != nil {
			return Expected{}, fmt.Errorf("expectedOutput must be an array of integers")
		}
		if exp.Ints == nil {
			exp.Ints = []int{}
		}
	case Boolean:
		if err := json.Unmarshal(raw, &exp.Bool); err == nil {
			return exp, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Expected{}, fmt.Errorf("expectedOutput must be a boolean")
		}
		b, ok := ParseBool(s)
		if !ok {
			return Expected{}, fmt.Errorf("expectedOutput must be \"true\" or \"false\"")
		}
		exp.Bool = b
	case Text:
		if err := json.Unmarshal(raw, &exp.Text); err != nil {
			return Expected{}, fmt.Errorf("expectedOutput must be a string")
		}
	default:
		return Expected{}, fmt.Errorf("unhandled output kind %s", d.Output)
	}
	return exp, nil
}

// ParseBool accepts "true"/"false" in any letter case, surrounding whitespace ignored.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// FormatInts renders [0,1] with no spaces, the form every harness prints.
func FormatInts(v []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteByte(']')
	return b.String()
}
