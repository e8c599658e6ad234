package grading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/practice-platform/internal/executor"
	"github.com/sakif/practice-platform/internal/problemtype"
)

func ints(v ...int) problemtype.Expected {
	return problemtype.Expected{Kind: problemtype.IntArray, Ints: v}
}

func boolean(b bool) problemtype.Expected {
	return problemtype.Expected{Kind: problemtype.Boolean, Bool: b}
}

func text(s string) problemtype.Expected {
	return problemtype.Expected{Kind: problemtype.Text, Text: s}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		actual   string
		expected problemtype.Expected
		order    problemtype.Order
		want     bool
	}{
		{"two sum exact", "[0,1]", ints(0, 1), problemtype.Ordered, true},
		{"two sum with spaces", "[0, 1]", ints(0, 1), problemtype.Ordered, true},
		{"two sum reversed", "[1,0]", ints(0, 1), problemtype.Ordered, false},
		{"top k permutation", "[2,1]", ints(1, 2), problemtype.Unordered, true},
		{"top k wrong element", "[1,3]", ints(1, 2), problemtype.Unordered, false},
		{"multiset counts matter", "[1,1]", ints(1, 2), problemtype.Unordered, false},
		{"length mismatch", "[0]", ints(0, 1), problemtype.Ordered, false},
		{"empty arrays", "[]", ints(), problemtype.Ordered, true},
		{"not an array", "0,1", ints(0, 1), problemtype.Ordered, false},
		{"null", "null", ints(), problemtype.Ordered, false},
		{"bool lower", "true", boolean(true), problemtype.Ordered, true},
		{"bool python style", "True", boolean(true), problemtype.Ordered, true},
		{"bool mismatch", "false", boolean(true), problemtype.Ordered, false},
		{"bool garbage", "1", boolean(true), problemtype.Ordered, false},
		{"text exact", "fl", text("fl"), problemtype.Ordered, true},
		{"text trims whitespace", "  fl\n", text("fl"), problemtype.Ordered, true},
		{"text is case sensitive", "FL", text("fl"), problemtype.Ordered, false},
		{"empty text", "", text(""), problemtype.Ordered, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Compare(tt.actual, tt.expected, tt.order)
			assert.Equal(t, tt.want, v.Success)
			assert.Equal(t, tt.actual, v.Actual)
			assert.Equal(t, tt.expected.String(), v.Expected)
			assert.Empty(t, v.Error)
		})
	}
}

func TestCompareIsIdempotent(t *testing.T) {
	exp := ints(1, 2, 3)
	first := Compare("[3,2,1]", exp, problemtype.Unordered)
	for range 5 {
		assert.Equal(t, first, Compare("[3,2,1]", exp, problemtype.Unordered))
	}
	assert.Equal(t, []int{1, 2, 3}, exp.Ints, "expected value must not be reordered")
}

func TestGrade(t *testing.T) {
	exp := ints(0, 1)

	t.Run("result is compared", func(t *testing.T) {
		v := Grade(&executor.Result{Output: "[0,1]"}, nil, exp, problemtype.Ordered)
		assert.True(t, v.Success)
		assert.Equal(t, "[0,1]", v.Actual)
		assert.Equal(t, "[0,1]", v.Expected)
	})

	t.Run("failure short-circuits", func(t *testing.T) {
		err := &executor.Failure{Kind: executor.TimeoutError, Detail: "execution exceeded 5000 ms"}
		v := Grade(nil, err, exp, problemtype.Ordered)
		assert.False(t, v.Success)
		assert.Equal(t, "TimeoutError", v.Error)
		assert.Equal(t, "execution exceeded 5000 ms", v.Message)
		assert.Empty(t, v.Actual)
		assert.Equal(t, "[0,1]", v.Expected)
	})

	t.Run("infrastructure error", func(t *testing.T) {
		v := Grade(nil, errors.New("docker daemon gone"), exp, problemtype.Ordered)
		assert.Equal(t, "InternalError", v.Error)
		assert.NotContains(t, v.Message, "docker")
	})
}
