package subd

import "errors"

// ErrInvariantViolation is wrapped by the errors SplitPatches returns
// when the split recursion reaches a state that indicates a bug in this
// package rather than bad caller input: a subpatch still holding a
// NonUniform edge at maximum depth, or a bisection of an edge already
// fixed at an odd factor. Each is returned as an ordinary error up
// through the recursion; no panic is involved.
var ErrInvariantViolation = errors.New("subd: internal invariant violation")

// ErrDegeneratePatch reports a patch whose corners are degenerate enough
// that no valid edge factor could be assigned. No function in this
// package returns it.
var ErrDegeneratePatch = errors.New("subd: degenerate patch")
