// Package grading decides pass/fail for one test case.
//
// Compare is a pure function of its arguments. The per-type policy (output
// kind and whether order matters) lives in the problemtype registry, so a new
// problem type needs no change here.
package grading

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/sakif/practice-platform/internal/executor"
	"github.com/sakif/practice-platform/internal/problemtype"
)

// Verdict is the outcome of one test case. Error is set only when the run
// failed, in which case Success is meaningless and Actual is empty.
type Verdict struct {
	Success  bool
	Actual   string
	Expected string
	Error    string
	Message  string
}

// Compare grades a raw harness value against the expected output.
func Compare(actual string, expected problemtype.Expected, order problemtype.Order) Verdict {
	v := Verdict{Actual: actual, Expected: expected.String()}

	switch expected.Kind {
	case problemtype.IntArray:
		got, ok := parseInts(actual)
		if !ok {
			return v
		}
		if order == problemtype.Unordered {
			v.Success = sameMultiset(got, expected.Ints)
		} else {
			v.Success = slices.Equal(got, expected.Ints)
		}
	case problemtype.Boolean:
		got, ok := problemtype.ParseBool(actual)
		v.Success = ok && got == expected.Bool
	case problemtype.Text:
		// Case is significant for anagram and palindrome problems.
		v.Success = strings.TrimSpace(actual) == strings.TrimSpace(expected.Text)
	}
	return v
}

// Grade turns an executor outcome into a verdict. A failed run short-circuits
// without comparing anything.
func Grade(res *executor.Result, err error, expected problemtype.Expected, order problemtype.Order) Verdict {
	if f, ok := executor.AsFailure(err); ok {
		return Verdict{Expected: expected.String(), Error: string(f.Kind), Message: f.Detail}
	}
	if err != nil {
		return Verdict{Expected: expected.String(), Error: "InternalError", Message: "execution failed"}
	}
	return Compare(res.Output, expected, order)
}

// parseInts accepts JSON arrays with or without spaces, "[0, 1]" and "[0,1]" alike.
func parseInts(s string) ([]int, bool) {
	var v []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}

func sameMultiset(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
