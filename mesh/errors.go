package mesh

import "errors"

// Error taxonomy for the fitting core. All failure conditions are
// detected by input validation before expensive computation begins and
// surfaced synchronously; there are no internal retries.
var (
	// ErrInvalidMesh reports a malformed mesh structure: an empty vertex
	// list, or a face referencing an out-of-range vertex index.
	ErrInvalidMesh = errors.New("invalid mesh")

	// ErrDegenerateInput reports correspondence pairs that leave the
	// rotation underdetermined: fewer than 3 pairs, mismatched lengths,
	// or collinear/coincident points.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrFittingFailed reports zero-extent geometry that prevents the
	// initial scale estimate. Fatal for the fitting request.
	ErrFittingFailed = errors.New("fitting failed")
)
