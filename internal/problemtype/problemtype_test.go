package problemtype

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every registered type must round-trip through its own Input implementation;
// this is what keeps the registry and the Input structs in step.
func TestRegistryIsConsistent(t *testing.T) {
	for _, d := range All() {
		t.Run(string(d.Type), func(t *testing.T) {
			in := d.newInput()
			assert.Equal(t, d.Type, in.Type())
			assert.Len(t, in.Args(), len(d.Params), "Args() must match Params")
			assert.NotEmpty(t, d.Method)

			got, ok := Lookup(d.Type)
			assert.True(t, ok)
			assert.Equal(t, d.Method, got.Method)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"two-sum", TwoSum},
		{"twoSum", TwoSum},
		{"Two Sum", TwoSum},
		{"two_sum", TwoSum},
		{"TWO-SUM", TwoSum},
		{"topKFrequent", TopKFrequent},
		{"Top K Frequent", TopKFrequent},
		{"productExceptSelf", ProductExceptSelf},
		{"containsDuplicate", ContainsDuplicate},
		{"validAnagram", ValidAnagram},
		{" valid-palindrome ", ValidPalindrome},
		{"longestCommonPrefix", LongestCommonPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Type)
		})
	}

	_, err := Parse("three-sum")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
}

func TestDecodeInput(t *testing.T) {
	twoSum, _ := Lookup(TwoSum)

	t.Run("valid", func(t *testing.T) {
		in, err := twoSum.DecodeInput(json.RawMessage(`{"nums":[2,7,11,15],"target":9}`))
		require.NoError(t, err)
		assert.Equal(t, []any{[]int{2, 7, 11, 15}, 9}, in.Args())
	})

	errCases := map[string]string{
		"missing target":   `{"nums":[2,7]}`,
		"null nums":        `{"nums":null,"target":1}`,
		"unknown key":      `{"nums":[2,7],"target":9,"extra":1}`,
		"not an object":    `[1,2]`,
		"empty":            ``,
		"too few elements": `{"nums":[2],"target":9}`,
		"wrong type":       `{"nums":"2,7","target":9}`,
		"outside int32":    `{"nums":[2,7],"target":9999999999}`,
	}
	for name, raw := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := twoSum.DecodeInput(json.RawMessage(raw))
			assert.Error(t, err)
		})
	}

	t.Run("top-k bounds", func(t *testing.T) {
		topK, _ := Lookup(TopKFrequent)
		_, err := topK.DecodeInput(json.RawMessage(`{"nums":[1,1,2],"k":4}`))
		assert.Error(t, err)
		_, err = topK.DecodeInput(json.RawMessage(`{"nums":[1,1,2],"k":2}`))
		assert.NoError(t, err)
	})

	t.Run("string inputs", func(t *testing.T) {
		lcp, _ := Lookup(LongestCommonPrefix)
		in, err := lcp.DecodeInput(json.RawMessage(`{"strs":["flower","flow"]}`))
		require.NoError(t, err)
		assert.Equal(t, []any{[]string{"flower", "flow"}}, in.Args())
	})
}

func TestDecodeExpected(t *testing.T) {
	twoSum, _ := Lookup(TwoSum)
	dup, _ := Lookup(ContainsDuplicate)
	lcp, _ := Lookup(LongestCommonPrefix)

	exp, err := twoSum.DecodeExpected(json.RawMessage(`[0, 1]`))
	require.NoError(t, err)
	assert.Equal(t, "[0,1]", exp.String())

	exp, err = twoSum.DecodeExpected(json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.Equal(t, "[]", exp.String())

	_, err = twoSum.DecodeExpected(json.RawMessage(`"0,1"`))
	assert.Error(t, err)

	for _, raw := range []string{`true`, `"true"`, `"TRUE"`, `" True "`} {
		exp, err = dup.DecodeExpected(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.True(t, exp.Bool, raw)
		assert.Equal(t, "true", exp.String())
	}
	_, err = dup.DecodeExpected(json.RawMessage(`"yes"`))
	assert.Error(t, err)

	exp, err = lcp.DecodeExpected(json.RawMessage(`"fl"`))
	require.NoError(t, err)
	assert.Equal(t, "fl", exp.String())

	_, err = lcp.DecodeExpected(json.RawMessage(`null`))
	assert.Error(t, err)
}
