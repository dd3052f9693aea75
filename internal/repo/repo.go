package repo

import "errors"

// ErrNotFound signals expected absence (no matching row). Callers treat it as
// a normal outcome, not an infrastructure failure.
var ErrNotFound = errors.New("not found")
