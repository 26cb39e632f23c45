// Package visitors renders query trees as SQL text for a backend. Every
// visitor pairs a fixed set of native renderings (clauses, literals,
// identifiers) with a dialect that supplies the SQL for function calls.
package visitors

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/quoting"
	"github.com/bawdo/geosql/nodes"
	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrNotImplemented is returned when a backend has no SQL spelling for a
// node, such as a byte array literal on MySQL.
var ErrNotImplemented = errors.NewKind("%s is not implemented for %s")

// Option configures a visitor at construction time.
type Option func(*baseVisitor)

// WithParams enables parameterized query mode. Scalar, byte array and
// date-time literals are replaced with bind placeholders and collected for
// retrieval through Params. Geometry and envelope literals stay inline.
func WithParams() Option {
	return func(b *baseVisitor) {
		b.parameterize = true
	}
}

// WithLogger sets the logger used to report dialect fallbacks and misses.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *baseVisitor) {
		b.logger = l
	}
}

// envelopeHook renders ST_EnvelopeIntersects(geom, env) natively. It
// reports false when the shape is not one the backend handles, in which
// case the dialect encoder is used.
type envelopeHook func(geom nodes.Expression, env *nodes.LiteralEnvelope) (string, bool, error)

// baseVisitor implements the SQL generation shared by all backends.
// Backend visitors embed *baseVisitor and set outer to themselves so that
// every recursive Accept goes through their overrides.
type baseVisitor struct {
	// outer is the concrete backend visitor.
	outer nodes.Visitor

	// name identifies the backend in errors and log fields.
	name string

	dialect *dialect.Dialect
	logger  logrus.FieldLogger

	quoteIdent   func(string) string
	escapeString func(string) string

	parameterize bool
	params       []any
	paramIndex   int
	placeholder  func(int) string

	// scopes counts the enclosing constructs that bring more than one data
	// set into scope. Property names keep their qualifiers while it is
	// positive.
	scopes int

	// depth is the nesting level of the statement being rendered.
	depth  int
	pretty bool

	// limitAsTop renders Limit as SELECT TOP n and rejects Offset.
	limitAsTop bool

	envelopeIntersects envelopeHook
}

func newBaseVisitor(outer nodes.Visitor, name string, d *dialect.Dialect) *baseVisitor {
	if d == nil {
		panic(nodes.ErrPreconditionViolation.New("geosql: " + name + " visitor needs a dialect"))
	}
	return &baseVisitor{
		outer:        outer,
		name:         name,
		dialect:      d,
		escapeString: quoting.EscapeString,
		placeholder:  func(int) string { return "?" },
	}
}

// applyOptions applies functional options to the baseVisitor.
func (b *baseVisitor) applyOptions(opts []Option) {
	for _, o := range opts {
		o(b)
	}
	if b.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		b.logger = l
	}
	b.logger = b.logger.WithField("backend", b.name)
}

// Params returns the collected bind parameters from the last SQL generation.
func (b *baseVisitor) Params() []any {
	return b.params
}

// Reset clears collected parameters for reuse.
func (b *baseVisitor) Reset() {
	b.params = nil
	b.paramIndex = 0
}

// Render renders e through the backend visitor. It lets the dialect's
// encoders render function arguments.
func (b *baseVisitor) Render(e nodes.Expression) (string, error) {
	return e.Accept(b.outer)
}

// Dialect returns the dialect the visitor encodes functions with.
func (b *baseVisitor) Dialect() *dialect.Dialect {
	return b.dialect
}

// Name returns the backend name.
func (b *baseVisitor) Name() string {
	return b.name
}

// bind records val as a bind parameter when parameterized mode is on.
func (b *baseVisitor) bind(val any) (string, bool) {
	if !b.parameterize {
		return "", false
	}
	b.paramIndex++
	b.params = append(b.params, val)
	return b.placeholder(b.paramIndex), true
}

func (b *baseVisitor) notImplemented(what string) error {
	return ErrNotImplemented.New(what, b.name)
}

func (b *baseVisitor) VisitLiteral(n *nodes.LiteralNode) (string, error) {
	if s, ok := b.bind(n.Value); ok {
		return s, nil
	}
	switch v := n.Value.(type) {
	case string:
		return "'" + b.escapeString(v) + "'", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return formatFloat(v), nil
	case nil:
		return "", nodes.ErrPreconditionViolation.New("literal without a value")
	default:
		return "", nodes.ErrPreconditionViolation.New(fmt.Sprintf("unsupported literal type %T", v))
	}
}

func (b *baseVisitor) VisitLiteralByteArray(n *nodes.LiteralByteArray) (string, error) {
	if s, ok := b.bind(n.Value); ok {
		return s, nil
	}
	return "", b.notImplemented("byte array literal")
}

func (b *baseVisitor) VisitLiteralDateTime(n *nodes.LiteralDateTime) (string, error) {
	if s, ok := b.bind(n.Value); ok {
		return s, nil
	}
	return "", b.notImplemented("date-time literal")
}

func (b *baseVisitor) VisitLiteralGeometry(*nodes.LiteralGeometry) (string, error) {
	return "", b.notImplemented("geometry literal")
}

func (b *baseVisitor) VisitLiteralEnvelope(*nodes.LiteralEnvelope) (string, error) {
	return "", b.notImplemented("envelope literal")
}

func (b *baseVisitor) VisitPropertyName(n *nodes.PropertyName) (string, error) {
	if n.Name == "" {
		return "", nodes.ErrPreconditionViolation.New("property name is empty")
	}
	if b.scopes > 0 {
		return quoting.Dotted(n.Name, b.quoteIdent), nil
	}
	return b.quoteIdent(n.LastSegment()), nil
}

func (b *baseVisitor) VisitFunction(n *nodes.Function) (string, error) {
	return b.encode(n.Name, n.Args)
}

func (b *baseVisitor) VisitBinaryFunction(n *nodes.BinaryFunction) (string, error) {
	return b.encode(n.Name, n.Args())
}

func (b *baseVisitor) VisitUnaryFunction(n *nodes.UnaryFunction) (string, error) {
	return b.encode(n.Name, []nodes.Expression{n.Arg})
}

func (b *baseVisitor) VisitLike(n *nodes.Like) (string, error) {
	return b.encode(nodes.FuncLike, n.Args())
}

// encode renders a call through the dialect, after giving the backend's
// envelope special case a chance.
func (b *baseVisitor) encode(name string, args []nodes.Expression) (string, error) {
	if name == nodes.FuncSTEnvelopeIntersects && b.envelopeIntersects != nil && len(args) == 2 {
		if env, ok := args[1].(*nodes.LiteralEnvelope); ok {
			s, handled, err := b.envelopeIntersects(args[0], env)
			if err != nil {
				return "", err
			}
			if handled {
				return s, nil
			}
		}
		b.logger.WithField("function", name).Debug("envelope shortcut does not apply, using dialect")
	}
	s, err := b.dialect.Encode(b, name, args)
	if err != nil {
		if dialect.ErrUnsupportedFunction.Is(err) {
			b.logger.WithFields(logrus.Fields{
				"function": name,
				"dialect":  b.dialect.Name(),
			}).Debug("function not in dialect")
		}
		return "", err
	}
	return s, nil
}

func (b *baseVisitor) VisitIn(n *nodes.In) (string, error) {
	if n.Property == nil || n.Property.Name == "" {
		return "", nodes.ErrPreconditionViolation.New("IN without a property name")
	}
	if len(n.Values) == 0 {
		return "", nodes.ErrPreconditionViolation.New("IN list for " + n.Property.Name + " is empty")
	}
	w := b.writer()
	w.Accept(n.Property)
	w.WriteString(" IN (")
	for i, v := range n.Values {
		if i > 0 {
			w.WriteString(", ")
		}
		w.Accept(v)
	}
	w.WriteString(")")
	return w.Result()
}

func (b *baseVisitor) VisitSelect(n *nodes.Select) (string, error) {
	saved := b.scopes
	b.scopes = 0
	if n.HasMultipleSources() {
		b.scopes = 1
	}
	b.depth++
	defer func() {
		b.scopes = saved
		b.depth--
	}()
	pretty := b.pretty && b.depth == 1

	w := b.writer()
	w.WriteString("SELECT")
	b.writeDistinct(w, n.Distinct)
	if b.limitAsTop {
		if n.Offset > 0 {
			w.Fail(b.notImplemented("OFFSET"))
		}
		if n.Limit > 0 {
			w.WriteString(" TOP " + strconv.FormatUint(n.Limit, 10))
		}
	}

	fields := make([]nodes.Node, 0, len(n.Fields))
	for _, f := range n.Fields {
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		fields = append(fields, nodes.Star())
	}
	b.writeClause(w, "", fields, pretty)

	from := make([]nodes.Node, len(n.From))
	for i, f := range n.From {
		from[i] = f
	}
	b.writeClause(w, "FROM", from, pretty)
	b.writeNodeClause(w, "WHERE", n.Where, pretty)
	b.writeClause(w, "GROUP BY", exprNodes(n.GroupBy), pretty)
	b.writeNodeClause(w, "HAVING", n.Having, pretty)

	orders := make([]nodes.Node, len(n.OrderBy))
	for i, o := range n.OrderBy {
		orders[i] = o
	}
	b.writeClause(w, "ORDER BY", orders, pretty)

	if !b.limitAsTop {
		b.writeCount(w, "LIMIT", n.Limit, pretty)
		b.writeCount(w, "OFFSET", n.Offset, pretty)
	}
	return w.Result()
}

func (b *baseVisitor) writeDistinct(w *sqlWriter, d nodes.Distinct) {
	if d == nil {
		return
	}
	w.WriteString(" DISTINCT")
	if len(d) == 0 {
		return
	}
	w.WriteString(" ON (")
	for i, e := range d {
		if i > 0 {
			w.WriteString(", ")
		}
		w.Accept(e)
	}
	w.WriteString(")")
}

// writeClause writes "keyword item1, item2, ..." if items is non-empty. An
// empty keyword continues the current line (the SELECT list).
func (b *baseVisitor) writeClause(w *sqlWriter, keyword string, items []nodes.Node, pretty bool) {
	if len(items) == 0 {
		return
	}
	sep := ", "
	switch {
	case pretty && keyword == "":
		w.WriteString("\n  ")
	case pretty:
		w.WriteString("\n" + keyword + "\n  ")
	case keyword == "":
		w.WriteString(" ")
	default:
		w.WriteString(" " + keyword + " ")
	}
	if pretty {
		sep = ",\n  "
	}
	for i, item := range items {
		if i > 0 {
			w.WriteString(sep)
		}
		w.Accept(item)
	}
}

// writeNodeClause writes "keyword node" if node is non-nil.
func (b *baseVisitor) writeNodeClause(w *sqlWriter, keyword string, n nodes.Expression, pretty bool) {
	if n == nil {
		return
	}
	b.writeClause(w, keyword, []nodes.Node{n}, pretty)
}

func (b *baseVisitor) writeCount(w *sqlWriter, keyword string, n uint64, pretty bool) {
	if n == 0 {
		return
	}
	if pretty {
		w.WriteString("\n")
	} else {
		w.WriteString(" ")
	}
	w.WriteString(keyword + " " + strconv.FormatUint(n, 10))
}

func (b *baseVisitor) VisitInsert(n *nodes.Insert) (string, error) {
	if n.Select != nil && len(n.Values) > 0 {
		return "", nodes.ErrPreconditionViolation.New("insert into " + n.Into.Name + " has both a select and values")
	}
	b.depth++
	defer func() { b.depth-- }()
	pretty := b.pretty && b.depth == 1

	w := b.writer()
	w.WriteString("INSERT INTO ")
	w.WriteString(quoting.Dotted(n.Into.Name, b.quoteIdent))
	if len(n.Fields) > 0 {
		w.WriteString(" (")
		for i, f := range n.Fields {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(b.quoteIdent(f.LastSegment()))
		}
		w.WriteString(")")
	}
	sep := " "
	if pretty {
		sep = "\n"
	}
	switch {
	case n.Select != nil:
		w.WriteString(sep)
		// the sub-select is laid out on one line of its own
		b.depth++
		w.Accept(n.Select)
		b.depth--
	case len(n.Values) > 0:
		w.WriteString(sep + "VALUES ")
		for i, row := range n.Values {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString("(")
			for j, v := range row {
				if j > 0 {
					w.WriteString(", ")
				}
				w.Accept(v)
			}
			w.WriteString(")")
		}
	}
	return w.Result()
}

func (b *baseVisitor) VisitDataSetName(n *nodes.DataSetName) (string, error) {
	s := quoting.Dotted(n.Name, b.quoteIdent)
	if n.Alias != "" {
		s += " AS " + b.quoteIdent(n.Alias)
	}
	return s, nil
}

func (b *baseVisitor) VisitSubSelect(n *nodes.SubSelect) (string, error) {
	b.depth++
	s, err := n.Select.Accept(b.outer)
	b.depth--
	if err != nil {
		return "", err
	}
	s = "(" + s + ")"
	if n.Alias != "" {
		s += " AS " + b.quoteIdent(n.Alias)
	}
	return s, nil
}

func (b *baseVisitor) VisitJoin(n *nodes.Join) (string, error) {
	b.scopes++
	defer func() { b.scopes-- }()

	w := b.writer()
	w.WriteString("(")
	w.Accept(n.First)
	w.WriteString(" ")
	if n.Natural && n.Type != nodes.NaturalJoin {
		w.WriteString("NATURAL ")
	}
	w.WriteString(n.Type.String())
	w.WriteString(" ")
	w.Accept(n.Second)
	if n.Condition != nil {
		w.WriteString(" ")
		w.Accept(n.Condition)
	}
	w.WriteString(")")
	return w.Result()
}

func (b *baseVisitor) VisitJoinOn(n *nodes.JoinOn) (string, error) {
	s, err := n.Expr.Accept(b.outer)
	if err != nil {
		return "", err
	}
	return "ON (" + s + ")", nil
}

func (b *baseVisitor) VisitJoinUsing(n *nodes.JoinUsing) (string, error) {
	w := b.writer()
	w.WriteString("USING (")
	for i, f := range n.Fields {
		if i > 0 {
			w.WriteString(", ")
		}
		// USING names columns common to both sides, never qualified ones.
		if p, ok := f.(*nodes.PropertyName); ok {
			w.WriteString(b.quoteIdent(p.LastSegment()))
			continue
		}
		w.Accept(f)
	}
	w.WriteString(")")
	return w.Result()
}

func (b *baseVisitor) VisitField(n *nodes.Field) (string, error) {
	s, err := n.Expr.Accept(b.outer)
	if err != nil {
		return "", err
	}
	if n.Alias != "" {
		s += " AS " + b.quoteIdent(n.Alias)
	}
	return s, nil
}

func (b *baseVisitor) VisitOrderByItem(n *nodes.OrderByItem) (string, error) {
	s, err := n.Expr.Accept(b.outer)
	if err != nil {
		return "", err
	}
	return s + " " + n.Order.String(), nil
}

func (b *baseVisitor) writer() *sqlWriter {
	return &sqlWriter{v: b.outer}
}

// sqlWriter accumulates SQL text and keeps the first error. Once an error
// is recorded every further write is dropped, so a failed statement never
// yields partial text.
type sqlWriter struct {
	sb  strings.Builder
	v   nodes.Visitor
	err error
}

func (w *sqlWriter) WriteString(s string) {
	if w.err == nil {
		w.sb.WriteString(s)
	}
}

// Accept renders n with the writer's visitor and appends the result.
func (w *sqlWriter) Accept(n nodes.Node) {
	if w.err != nil {
		return
	}
	s, err := n.Accept(w.v)
	if err != nil {
		w.err = err
		return
	}
	w.sb.WriteString(s)
}

func (w *sqlWriter) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *sqlWriter) Result() (string, error) {
	if w.err != nil {
		return "", w.err
	}
	return w.sb.String(), nil
}

func exprNodes(exprs []nodes.Expression) []nodes.Node {
	out := make([]nodes.Node, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
