package problemtype

import (
	"errors"
	"fmt"
)

// Bounds on decoded inputs. The request body limit already caps total size;
// these keep individual values within what every harness language handles.
const (
	maxElements = 100000
	maxStrLen   = 100000
)

type TwoSumInput struct {
	Nums   []int `json:"nums"`
	Target int   `json:"target"`
}

func (in *TwoSumInput) Type() Type  { return TwoSum }
func (in *TwoSumInput) Args() []any { return []any{in.Nums, in.Target} }
func (in *TwoSumInput) Validate() error {
	if len(in.Nums) < 2 {
		return errors.New("nums must contain at least 2 elements")
	}
	if !fitsInt32(in.Target) {
		return errors.New("target is outside the 32-bit integer range")
	}
	return checkInts("nums", in.Nums)
}

type TopKFrequentInput struct {
	Nums []int `json:"nums"`
	K    int   `json:"k"`
}

func (in *TopKFrequentInput) Type() Type  { return TopKFrequent }
func (in *TopKFrequentInput) Args() []any { return []any{in.Nums, in.K} }
func (in *TopKFrequentInput) Validate() error {
	if len(in.Nums) == 0 {
		return errors.New("nums must not be empty")
	}
	if in.K < 1 || in.K > len(in.Nums) {
		return fmt.Errorf("k must be between 1 and %d", len(in.Nums))
	}
	return checkInts("nums", in.Nums)
}

type ProductExceptSelfInput struct {
	Nums []int `json:"nums"`
}

func (in *ProductExceptSelfInput) Type() Type  { return ProductExceptSelf }
func (in *ProductExceptSelfInput) Args() []any { return []any{in.Nums} }
func (in *ProductExceptSelfInput) Validate() error {
	if len(in.Nums) < 2 {
		return errors.New("nums must contain at least 2 elements")
	}
	return checkInts("nums", in.Nums)
}

type ContainsDuplicateInput struct {
	Nums []int `json:"nums"`
}

func (in *ContainsDuplicateInput) Type() Type  { return ContainsDuplicate }
func (in *ContainsDuplicateInput) Args() []any { return []any{in.Nums} }
func (in *ContainsDuplicateInput) Validate() error {
	return checkInts("nums", in.Nums)
}

type ValidAnagramInput struct {
	S string `json:"s"`
	T string `json:"t"`
}

func (in *ValidAnagramInput) Type() Type  { return ValidAnagram }
func (in *ValidAnagramInput) Args() []any { return []any{in.S, in.T} }
func (in *ValidAnagramInput) Validate() error {
	if err := checkStr("s", in.S); err != nil {
		return err
	}
	return checkStr("t", in.T)
}

type ValidPalindromeInput struct {
	S string `json:"s"`
}

func (in *ValidPalindromeInput) Type() Type      { return ValidPalindrome }
func (in *ValidPalindromeInput) Args() []any     { return []any{in.S} }
func (in *ValidPalindromeInput) Validate() error { return checkStr("s", in.S) }

type LongestCommonPrefixInput struct {
	Strs []string `json:"strs"`
}

func (in *LongestCommonPrefixInput) Type() Type  { return LongestCommonPrefix }
func (in *LongestCommonPrefixInput) Args() []any { return []any{in.Strs} }
func (in *LongestCommonPrefixInput) Validate() error {
	if len(in.Strs) == 0 {
		return errors.New("strs must not be empty")
	}
	if len(in.Strs) > maxElements {
		return fmt.Errorf("strs must have at most %d elements", maxElements)
	}
	for i, s := range in.Strs {
		if err := checkStr(fmt.Sprintf("strs[%d]", i), s); err != nil {
			return err
		}
	}
	return nil
}

// Harness languages use 32-bit ints for parameters.
func checkInts(name string, nums []int) error {
	if len(nums) > maxElements {
		return fmt.Errorf("%s must have at most %d elements", name, maxElements)
	}
	for i, n := range nums {
		if !fitsInt32(n) {
			return fmt.Errorf("%s[%d] is outside the 32-bit integer range", name, i)
		}
	}
	return nil
}

func fitsInt32(n int) bool {
	return n >= -1<<31 && n <= 1<<31-1
}

func checkStr(name, s string) error {
	if len(s) > maxStrLen {
		return fmt.Errorf("%s must be at most %d bytes", name, maxStrLen)
	}
	return nil
}
