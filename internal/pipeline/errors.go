package pipeline

import "fmt"

// RunError wraps the first failure of a dataset run with the run's
// identity. Committed fragments stay committed; unconsumed fragment files
// remain on disk for the next run.
type RunError struct {
	Dataset  string
	Fragment string
	Err      error
}

func (e *RunError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("run %s: %v", e.Dataset, e.Err)
	}
	return fmt.Sprintf("run %s: fragment %s: %v", e.Dataset, e.Fragment, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
