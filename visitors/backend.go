package visitors

import (
	"strings"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/nodes"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrUnknownBackend is returned by New for an unrecognised backend name.
var ErrUnknownBackend = errors.NewKind("unknown backend %q")

// Backends lists the backend names accepted by New.
var Backends = []string{"ado", "generic", "mysql", "postgis", "sqlite"}

// New creates the visitor for the named backend.
func New(backend string, d *dialect.Dialect, opts ...Option) (nodes.Visitor, error) {
	switch strings.ToLower(backend) {
	case "generic":
		return NewGenericVisitor(d, opts...), nil
	case "postgis":
		return NewPostGISVisitor(d, opts...), nil
	case "mysql":
		return NewMySQLVisitor(d, opts...), nil
	case "sqlite":
		return NewSQLiteVisitor(d, opts...), nil
	case "ado":
		return NewADOVisitor(d, opts...), nil
	}
	return nil, ErrUnknownBackend.New(backend)
}

// DefaultDialect names the builtin dialect a backend renders with. The
// generic backend shares the PostGIS function names.
func DefaultDialect(backend string) string {
	if strings.EqualFold(backend, "generic") {
		return "postgis"
	}
	return strings.ToLower(backend)
}
