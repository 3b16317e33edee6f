package abf

import "fmt"

// DegenerateLocusError means that no posterior can be computed for a locus.
// The locus is left out of the results; other loci are unaffected.
type DegenerateLocusError struct {
	IndexRSID string
	Reason    string
}

func (e *DegenerateLocusError) Error() string {
	return fmt.Sprintf("locus %s: %s", e.IndexRSID, e.Reason)
}
