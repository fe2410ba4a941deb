package eval

import "fmt"

// ExecutionError is the single error type the evaluator returns for
// any unrecoverable runtime condition. Category distinguishes the
// specific runtime fault so callers can match on it without parsing
// Message, while Message carries the printable text the top-level
// driver reports.
type ExecutionError struct {
	Category string
	Message  string
}

func (e *ExecutionError) Error() string { return e.Message }

func execErr(category, format string, args ...any) *ExecutionError {
	return &ExecutionError{Category: category, Message: category + ": " + fmt.Sprintf(format, args...)}
}

// Runtime fault categories.
const (
	CategoryVoidReference = "VoidReferenceError"
	CategoryZeroDivision  = "ZeroDivisionError"
	CategoryCaseNoMatch   = "CaseError"
	CategoryInput         = "InputError"
	CategoryAbort         = "AbortError"
	CategoryMainMissing   = "MainClassNotFound"
	CategoryMainMethod    = "MainMethodNotFound"
	CategoryExecution     = "ExecutionError"
)

func errVoidDispatch() *ExecutionError {
	return execErr(CategoryVoidReference, "Object reference not set to an instance of an object.")
}

func errZeroDivision() *ExecutionError {
	return execErr(CategoryZeroDivision, "Division by zero.")
}

func errCaseNoMatch() *ExecutionError {
	return execErr(CategoryCaseNoMatch, "No branch matches the dynamic type of the case expression.")
}

func errInput() *ExecutionError {
	return execErr(CategoryInput, "Expected a number.")
}
