package search

import "fmt"

// UnresolvedCountryError is fatal for a search: the country text could not
// be mapped to an upstream id, so submission must not proceed.
type UnresolvedCountryError struct {
	Name string
}

func (e *UnresolvedCountryError) Error() string {
	return fmt.Sprintf("country %q is not known to the tour database", e.Name)
}

// NoRequestIDError means the submit call succeeded but carried no request
// identifier. The upstream answers this way when it has no packaged tours
// for the route, so it is an expected outcome rather than a fault.
type NoRequestIDError struct{}

func (e *NoRequestIDError) Error() string {
	return "no packaged tours available for this route right now"
}

// PollExhaustedError reports that the poll budget ran out. SawBlock
// distinguishes "results started appearing but prices never did" from
// "the result block never appeared at all", which call for different
// operator diagnoses.
type PollExhaustedError struct {
	RequestID string
	SawBlock  bool
}

func (e *PollExhaustedError) Error() string {
	if e.SawBlock {
		return "tours with prices are not ready yet"
	}
	return "result block never appeared in poll responses"
}
