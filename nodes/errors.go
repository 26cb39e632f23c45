package nodes

import (
	"fmt"

	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrPreconditionViolation is returned (or raised, for constructors) when a
// tree is built or rendered in a state that can only come from a caller bug:
// a missing child, an inverted envelope, an IN with no property.
var ErrPreconditionViolation = errors.NewKind("precondition violation: %s")

// precondition panics with a "geosql: " message carrying an
// ErrPreconditionViolation error.
func precondition(format string, args ...any) {
	panic(ErrPreconditionViolation.New(fmt.Sprintf("geosql: "+format, args...)))
}
