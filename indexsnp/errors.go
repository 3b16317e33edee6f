package indexsnp

import "fmt"

// ConvergenceError means an iteration of the selection loop failed to shrink
// the pool or to remove the variant it selected. It indicates a bug or an
// inconsistent genetic map and is not recoverable.
type ConvergenceError struct {
	RSID       string
	PoolBefore int
	PoolAfter  int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("index variant %s did not shrink the candidate pool (%d before, %d after exclusion)", e.RSID, e.PoolBefore, e.PoolAfter)
}
