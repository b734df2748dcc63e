package assertions

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

// AssertionFailure is the error form of a failed Result.
type AssertionFailure struct {
	Result *Result
}

func (f *AssertionFailure) Error() string {
	return fmt.Sprintf("%s %s: %s", f.Result.Subject, f.Result.Operator, f.Result.Message)
}

// Passed reports whether every result passed. An empty list passes.
func Passed(results []*Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Failures aggregates the failed results into one error whose elements are
// *AssertionFailure, or returns nil when all passed.
func Failures(results []*Result) error {
	var errs *multierror.Error
	for _, r := range results {
		if !r.Passed {
			errs = multierror.Append(errs, &AssertionFailure{Result: r})
		}
	}
	return errs.ErrorOrNil()
}
