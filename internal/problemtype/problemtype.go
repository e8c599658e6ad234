// Package problemtype is the closed set of problem shapes the platform can grade.
//
// Each Type has one Descriptor (method name, parameter order, output kind and
// comparison order) and one typed Input struct. Adding a problem type means
// adding a constant, an Input implementation and a registry entry; the
// registry test fails if any of the three is missing.
package problemtype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
)

// Type discriminates the input/output shape of a submission.
type Type string

const (
	TwoSum              Type = "two-sum"
	TopKFrequent        Type = "top-k-frequent"
	ProductExceptSelf   Type = "product-except-self"
	ContainsDuplicate   Type = "contains-duplicate"
	ValidAnagram        Type = "valid-anagram"
	ValidPalindrome     Type = "valid-palindrome"
	LongestCommonPrefix Type = "longest-common-prefix"
)

// OutputKind is the shape of the value a solution returns.
type OutputKind int

const (
	IntArray OutputKind = iota
	Boolean
	Text
)

func (k OutputKind) String() string {
	switch k {
	case IntArray:
		return "int[]"
	case Boolean:
		return "boolean"
	case Text:
		return "string"
	}
	return fmt.Sprintf("OutputKind(%d)", int(k))
}

// Order is the comparison policy for IntArray outputs.
type Order int

const (
	// Ordered compares element by element (Two Sum returns indices in a fixed order).
	Ordered Order = iota
	// Unordered compares as multisets (Top-K-Frequent accepts any permutation).
	Unordered
)

// Input is the decoded, validated input of one test case.
type Input interface {
	Type() Type
	// Args returns the method arguments in parameter order.
	// Element types are limited to int, []int, string and []string.
	Args() []any
	Validate() error
}

// Descriptor describes one problem type.
type Descriptor struct {
	Type   Type
	Method string
	Params []string
	Output OutputKind
	Order  Order

	newInput func() Input
}

var registry = map[Type]Descriptor{
	TwoSum: {
		Type: TwoSum, Method: "twoSum", Params: []string{"nums", "target"},
		Output: IntArray, Order: Ordered,
		newInput: func() Input { return &TwoSumInput{} },
	},
	TopKFrequent: {
		Type: TopKFrequent, Method: "topKFrequent", Params: []string{"nums", "k"},
		Output: IntArray, Order: Unordered,
		newInput: func() Input { return &TopKFrequentInput{} },
	},
	ProductExceptSelf: {
		Type: ProductExceptSelf, Method: "productExceptSelf", Params: []string{"nums"},
		Output: IntArray, Order: Ordered,
		newInput: func() Input { return &ProductExceptSelfInput{} },
	},
	ContainsDuplicate: {
		Type: ContainsDuplicate, Method: "containsDuplicate", Params: []string{"nums"},
		Output: Boolean,
		newInput: func() Input { return &ContainsDuplicateInput{} },
	},
	ValidAnagram: {
		Type: ValidAnagram, Method: "isAnagram", Params: []string{"s", "t"},
		Output: Boolean,
		newInput: func() Input { return &ValidAnagramInput{} },
	},
	ValidPalindrome: {
		Type: ValidPalindrome, Method: "isPalindrome", Params: []string{"s"},
		Output: Boolean,
		newInput: func() Input { return &ValidPalindromeInput{} },
	},
	LongestCommonPrefix: {
		Type: LongestCommonPrefix, Method: "longestCommonPrefix", Params: []string{"strs"},
		Output: Text,
		newInput: func() Input { return &LongestCommonPrefixInput{} },
	},
}

// Lookup returns the descriptor for a canonical type.
func Lookup(t Type) (Descriptor, bool) {
	d, ok := registry[t]
	return d, ok
}

// Parse resolves a caller-supplied problem type. Besides the canonical slug it
// accepts the spellings clients tend to send: "twoSum", "Two Sum", "two_sum".
func Parse(s string) (Descriptor, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	key := Type(slug.Make(splitCamel(s)))
	d, ok := registry[key]
	if !ok {
		return Descriptor{}, fmt.Errorf("unknown problem type %q", s)
	}
	return d, nil
}

// All returns every descriptor sorted by type.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// DecodeInput decodes raw test case input for this type.
// Every parameter must be present; unknown keys are rejected.
func (d Descriptor) DecodeInput(raw json.RawMessage) (Input, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("input is required")
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	for _, p := range d.Params {
		v, ok := keys[p]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("%s is required", p)
		}
	}

	in := d.newInput()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(in); err != nil {
		return nil, fmt.Errorf("decoding %s input: %w", d.Type, err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// splitCamel inserts a space before each upper-case rune that follows a
// lower-case one, so slug.Make turns "topKFrequent" into "top-k-frequent".
func splitCamel(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
