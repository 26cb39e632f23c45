// Package objectid identifies rows by the values of their identifying
// properties and turns sets of such identities into query restrictions.
package objectid

import (
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// ObjectId is the ordered list of values identifying one row: one value
// per identifying property of the Set it belongs to.
type ObjectId struct {
	values []any
}

// New creates an ObjectId from its values.
func New(values ...any) *ObjectId {
	return &ObjectId{values: slices.Clone(values)}
}

// Values returns a copy of the identifying values.
func (id *ObjectId) Values() []any {
	return slices.Clone(id.values)
}

// Len returns the number of values.
func (id *ObjectId) Len() int {
	return len(id.values)
}

// String renders the values comma separated.
func (id *ObjectId) String() string {
	parts := make([]string, len(id.values))
	for i, v := range id.values {
		parts[i] = cast.ToString(v)
	}
	return strings.Join(parts, ",")
}

// Clone returns an independent copy.
func (id *ObjectId) Clone() *ObjectId {
	return New(id.values...)
}
