package querydoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/bawdo/geosql/filter"
	"github.com/bawdo/geosql/managers"
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/objectid"
	"github.com/bawdo/geosql/plugins/extent"
	"github.com/bawdo/geosql/plugins/selection"
	"github.com/bawdo/geosql/queryencoder"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

// Query is a built document: a select, and for insert documents the
// insert wrapping it.
type Query struct {
	Select *managers.SelectManager
	Insert *managers.InsertManager
}

// ToSQL renders the statement with v.
func (q *Query) ToSQL(v nodes.Visitor) (string, []any, error) {
	if q.Insert != nil {
		return q.Insert.ToSQL(v)
	}
	return q.Select.ToSQL(v)
}

// ToDot renders the select as a Graphviz graph.
func (q *Query) ToDot() (string, error) {
	return q.Select.ToDot()
}

// Option configures Build.
type Option func(*builder)

// WithLogger sets the logger handed to the filter encoder.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *builder) { b.logger = l }
}

// WithExtent applies a default spatial window when the document has none.
func WithExtent(e *Extent) Option {
	return func(b *builder) { b.defaultExtent = e }
}

type builder struct {
	logger        logrus.FieldLogger
	defaultExtent *Extent
}

var joinTypes = map[string]nodes.JoinType{
	"":      nodes.InnerJoin,
	"inner": nodes.InnerJoin,
	"left":  nodes.LeftJoin,
	"right": nodes.RightJoin,
	"full":  nodes.FullOuterJoin,
	"cross": nodes.CrossJoin,
}

// Build turns doc into managers ready to render.
func Build(doc *Document, opts ...Option) (*Query, error) {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		b.logger = l
	}
	if len(doc.From) == 0 {
		return nil, ErrInvalidDocument.New("from is required")
	}

	m := managers.NewSelectManager(nil)
	items := make([]nodes.FromItem, len(doc.From))
	for i, ds := range doc.From {
		items[i] = dataSet(ds)
	}
	m.From(items...)

	encOpts := []queryencoder.Option{queryencoder.WithLogger(b.logger)}
	if doc.IDProperty != "" {
		encOpts = append(encOpts, queryencoder.WithIDProperty(doc.IDProperty))
	}
	enc := queryencoder.New(encOpts...)

	for i, j := range doc.Joins {
		if err := b.join(m, enc, j); err != nil {
			return nil, ErrInvalidDocument.Wrap(err, fmt.Sprintf("joins[%d]: %v", i, err))
		}
	}

	for i, f := range doc.Fields {
		expr, err := field(f)
		if err != nil {
			return nil, ErrInvalidDocument.Wrap(err, fmt.Sprintf("fields[%d]: %v", i, err))
		}
		m.Field(expr, f.Alias)
	}
	if doc.Distinct {
		m.Distinct()
	}

	if where, err := b.where(doc, enc); err != nil {
		return nil, err
	} else if where != nil {
		m.Where(where)
	}

	for _, g := range doc.GroupBy {
		m.GroupBy(nodes.Property(g))
	}
	if doc.Having != nil {
		having, err := enc.Encode(filter.New(doc.Having.Op))
		if err != nil {
			return nil, ErrInvalidDocument.Wrap(err, "having: "+err.Error())
		}
		m.Having(having)
	}
	for i, o := range doc.OrderBy {
		order, err := sortOrder(o.Order)
		if err != nil {
			return nil, ErrInvalidDocument.Wrap(err, fmt.Sprintf("order_by[%d]: %v", i, err))
		}
		m.OrderBy(nodes.Property(o.Property), order)
	}
	if doc.Limit > 0 {
		m.Limit(doc.Limit)
	}
	if doc.Offset > 0 {
		m.Offset(doc.Offset)
	}

	ext := doc.Extent
	if ext == nil {
		ext = b.defaultExtent
	}
	if ext != nil {
		t, err := extentPlugin(ext)
		if err != nil {
			return nil, err
		}
		m.Use(t)
	}
	if doc.Selection != nil {
		t, err := selectionPlugin(doc.Selection)
		if err != nil {
			return nil, err
		}
		m.Use(t)
	}

	q := &Query{Select: m}
	if doc.Insert != nil {
		if doc.Insert.Into.Name == "" {
			return nil, ErrInvalidDocument.New("insert.into is required")
		}
		ins := managers.NewInsertManager(dataSet(doc.Insert.Into))
		if len(doc.Insert.Fields) > 0 {
			ins.Fields(doc.Insert.Fields...)
		}
		if _, err := ins.FromSelect(m); err != nil {
			return nil, err
		}
		q.Insert = ins
	}
	return q, nil
}

func (b *builder) join(m *managers.SelectManager, enc *queryencoder.Encoder, j Join) error {
	if j.DataSet.Name == "" {
		return fmt.Errorf("dataset is required")
	}
	typ, ok := joinTypes[strings.ToLower(j.Type)]
	if !ok {
		return fmt.Errorf("unknown join type %q", j.Type)
	}
	if j.Natural && j.Type == "" {
		typ = nodes.PlainJoin
	}
	item := dataSet(j.DataSet)

	conditions := 0
	for _, set := range []bool{j.On != nil, len(j.Using) > 0, j.Natural} {
		if set {
			conditions++
		}
	}
	switch {
	case typ == nodes.CrossJoin:
		if conditions > 0 {
			return fmt.Errorf("a cross join takes no condition")
		}
		m.CrossJoin(item)
	case conditions != 1:
		return fmt.Errorf("needs exactly one of on, using and natural")
	case j.Natural:
		m.NaturalJoin(item, typ)
	case len(j.Using) > 0:
		m.Join(item, typ).Using(j.Using...)
	default:
		cond, err := enc.EncodeOp(j.On.Op)
		if err != nil {
			return err
		}
		m.Join(item, typ).On(cond)
	}
	return nil
}

// where encodes the where predicate together with the identifier list.
func (b *builder) where(doc *Document, enc *queryencoder.Encoder) (nodes.Expression, error) {
	var parts []nodes.Expression
	if doc.Where != nil {
		expr, err := enc.Encode(filter.New(doc.Where.Op))
		if err != nil {
			return nil, ErrInvalidDocument.Wrap(err, "where: "+err.Error())
		}
		parts = append(parts, expr)
	}
	if len(doc.IDs) > 0 {
		if doc.IDProperty == "" {
			return nil, ErrInvalidDocument.New("ids need id_property")
		}
		expr, err := enc.Encode(filter.ByIDs(doc.IDs...))
		if err != nil {
			return nil, ErrInvalidDocument.Wrap(err, "ids: "+err.Error())
		}
		parts = append(parts, expr)
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return nodes.Conjoin(parts...), nil
}

func dataSet(ds DataSet) *nodes.DataSetName {
	n := nodes.DataSet(ds.Name)
	if ds.Alias != "" {
		return n.As(ds.Alias)
	}
	return n
}

func field(f Field) (nodes.Expression, error) {
	switch {
	case f.Function != "" && f.Property != "":
		return nil, fmt.Errorf("property and function are mutually exclusive")
	case f.Function != "":
		args := make([]nodes.Expression, len(f.Args))
		for i, a := range f.Args {
			args[i] = nodes.Property(a)
		}
		return nodes.NewFunction(f.Function, args...), nil
	case f.Property != "":
		return nodes.Property(f.Property), nil
	}
	return nil, fmt.Errorf("needs a property or a function")
}

func sortOrder(s string) (nodes.SortOrder, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return nodes.Asc, nil
	case "desc":
		return nodes.Desc, nil
	}
	return nodes.Asc, fmt.Errorf("unknown order %q", s)
}

func extentPlugin(e *Extent) (*extent.Extent, error) {
	if len(e.BBox) != 4 {
		return nil, ErrInvalidDocument.New(fmt.Sprintf("extent.bbox needs 4 numbers, got %d", len(e.BBox)))
	}
	window := orb.Bound{Min: orb.Point{e.BBox[0], e.BBox[1]}, Max: orb.Point{e.BBox[2], e.BBox[3]}}
	if window.Min[0] > window.Max[0] || window.Min[1] > window.Max[1] {
		return nil, ErrInvalidDocument.New(fmt.Sprintf("extent.bbox %v is inverted", e.BBox))
	}
	var opts []extent.Option
	if e.SRID != 0 {
		opts = append(opts, extent.WithSRID(e.SRID))
	}
	if e.Column != "" {
		opts = append(opts, extent.WithColumn(e.Column))
	}
	if len(e.DataSets) > 0 {
		opts = append(opts, extent.WithDataSets(e.DataSets...))
	}
	return extent.New(window, opts...), nil
}

func selectionPlugin(s *Selection) (*selection.Selection, error) {
	set := objectid.NewSet()
	for i, p := range s.Properties {
		typ, err := objectid.ParsePropertyType(p.Type)
		if err != nil {
			return nil, ErrInvalidDocument.Wrap(err, fmt.Sprintf("selection.properties[%d]: %v", i, err))
		}
		if err := set.AddProperty(p.Name, i, typ); err != nil {
			return nil, ErrInvalidDocument.Wrap(err, fmt.Sprintf("selection.properties[%d]: %v", i, err))
		}
	}
	for i, values := range s.IDs {
		if err := set.Add(objectid.New(values...)); err != nil {
			return nil, ErrInvalidDocument.Wrap(err, fmt.Sprintf("selection.ids[%d]: %v", i, err))
		}
	}
	return selection.New(s.DataSet, set), nil
}
