package model

// ExecutionRequest is the body of POST /api/execute-{lang}.
// It is built per "Run" click, consumed once and discarded; nothing here is persisted.
type ExecutionRequest struct {
	Code        string     `json:"code"`
	Language    string     `json:"language"`
	ProblemType string     `json:"problemType"`
	TestCases   []TestCase `json:"testCases"`
}

// SubmitRequest is the body of POST /api/problems/{slug}/submit.
// The test cases come from the repository, not from the caller.
type SubmitRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ExecutionResult is the outcome of one test case.
//
// Exactly one of ActualOutput and Error is set. Success is present only when
// the program produced output; a pointer keeps `false` distinguishable from absent.
type ExecutionResult struct {
	ActualOutput   *string `json:"actualOutput,omitempty"`
	Error          string  `json:"error,omitempty"`
	Message        string  `json:"message,omitempty"`
	ExpectedOutput string  `json:"expectedOutput"`
	Success        *bool   `json:"success,omitempty"`
	Stdout         string  `json:"stdout,omitempty"`
	Truncated      bool    `json:"truncated,omitempty"`
	Hidden         bool    `json:"hidden,omitempty"`
	DurationMs     int64   `json:"durationMs"`
}

// Passed reports whether the result counts towards passed/total.
func (r ExecutionResult) Passed() bool {
	return r.Success != nil && *r.Success
}

// ExecutionResponse carries one result per submitted test case, in submission order.
type ExecutionResponse struct {
	Results []ExecutionResult `json:"results"`
	Passed  int               `json:"passed"`
	Total   int               `json:"total"`
}
