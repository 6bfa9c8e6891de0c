package domain

import "errors"

// Error kinds used across the pipeline. Callers classify failures with
// errors.Is rather than string matching.
//
// ErrConfig marks a defect in the user's rules file (unknown field, bad
// bounds, duplicate rules, invalid storage path). Always fatal and never
// retried.
//
// ErrInput marks a defect in a transaction export (missing required column,
// unparseable date, unrecognized header). Fatal for the run, but state
// already computed for other accounts is simply discarded; nothing is
// partially committed.
//
// Unparseable amounts are deliberately NOT an error: mis-formatted amounts
// are common in noisy exports, so they default to zero and the zero-amount
// pruning pass drops them.
var (
	ErrConfig = errors.New("configuration error")
	ErrInput  = errors.New("input error")
)
