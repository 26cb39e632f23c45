package managers

import (
	"errors"
	"strings"
	"testing"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/testutil"
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/plugins"
	"github.com/bawdo/geosql/plugins/extent"
	"github.com/bawdo/geosql/visitors"
	"github.com/paulmach/orb"
)

func postgis(t *testing.T, opts ...visitors.Option) *visitors.PostGISVisitor {
	t.Helper()
	d, err := dialect.Builtin("postgis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return visitors.NewPostGISVisitor(d, opts...)
}

func assertManagerSQL(t *testing.T, m *SelectManager, expected string) {
	t.Helper()
	sql, _, err := m.ToSQL(postgis(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, sql)
	}
}

// --- NewSelectManager ---

func TestNewSelectManagerSetsFrom(t *testing.T) {
	t.Parallel()
	city := nodes.DataSet("city")
	m := NewSelectManager(city)

	if len(m.Statement.From) != 1 || m.Statement.From[0] != city {
		t.Error("expected From to be the city data set")
	}
	if len(m.Statement.Fields) != 0 {
		t.Error("expected empty fields")
	}
	if m.Statement.Where != nil {
		t.Error("expected no where")
	}
}

func TestNewSelectManagerNilFrom(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nil)
	if m.Statement.From != nil {
		t.Error("expected nil From")
	}
}

// --- Select / Field ---

func TestSelectReplacesFields(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city"))
	m.Select(nodes.Property("id"))
	m.Select(nodes.Property("name"), nodes.Property("uf"))

	if len(m.Statement.Fields) != 2 {
		t.Fatalf("expected 2 fields after replacement, got %d", len(m.Statement.Fields))
	}
	assertManagerSQL(t, m, "SELECT name, uf FROM city")
}

func TestFieldAppendsAlias(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city")).
		Select(nodes.Property("name")).
		Field(nodes.NewFunction("ST_Area", nodes.Property("geom")), "area")
	assertManagerSQL(t, m, "SELECT name, ST_Area(geom) AS area FROM city")
}

// --- Where / Having ---

func TestWhereCombinesWithAnd(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city")).
		Where(nodes.Property("uf").Eq("SP")).
		Where(nodes.Property("pop").Gt(100000), nodes.Property("capital").Eq(true))
	assertManagerSQL(t, m, "SELECT * FROM city WHERE uf = 'SP' AND pop > 100000 AND capital = TRUE")
}

func TestGroupByAndHaving(t *testing.T) {
	t.Parallel()
	count := nodes.NewFunction("COUNT", nodes.Star())
	m := NewSelectManager(nodes.DataSet("city")).
		Select(nodes.Property("uf")).
		Field(count, "n").
		GroupBy(nodes.Property("uf")).
		Having(nodes.GreaterThan(count.Clone(), nodes.Literal(10))).
		Having(nodes.LessThan(count.Clone(), nodes.Literal(500)))
	assertManagerSQL(t, m,
		"SELECT uf, COUNT(*) AS n FROM city GROUP BY uf HAVING COUNT(*) > 10 AND COUNT(*) < 500")
}

// --- Joins ---

func TestJoinDefaultsToInnerJoin(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city").As("c")).
		Join(nodes.DataSet("state").As("s")).
		On(nodes.EqualTo(nodes.Property("c.uf"), nodes.Property("s.uf")))

	j, ok := m.Statement.From[0].(*nodes.Join)
	if !ok {
		t.Fatalf("expected a join, got %T", m.Statement.From[0])
	}
	if j.Type != nodes.InnerJoin {
		t.Errorf("expected InnerJoin, got %v", j.Type)
	}
	assertManagerSQL(t, m, "SELECT * FROM (city AS c INNER JOIN state AS s ON (c.uf = s.uf))")
}

func TestJoinConvenienceTypes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		join func(m *SelectManager) *JoinContext
		want string
	}{
		{"left", func(m *SelectManager) *JoinContext { return m.LeftJoin(nodes.DataSet("b")) }, "LEFT JOIN"},
		{"right", func(m *SelectManager) *JoinContext { return m.RightJoin(nodes.DataSet("b")) }, "RIGHT JOIN"},
		{"full", func(m *SelectManager) *JoinContext { return m.FullOuterJoin(nodes.DataSet("b")) }, "FULL OUTER JOIN"},
		{"inner", func(m *SelectManager) *JoinContext { return m.InnerJoin(nodes.DataSet("b")) }, "INNER JOIN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := tc.join(NewSelectManager(nodes.DataSet("a"))).Using("id")
			assertManagerSQL(t, m, "SELECT * FROM (a "+tc.want+" b USING (id))")
		})
	}
}

func TestCrossAndNaturalJoins(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("a")).
		CrossJoin(nodes.DataSet("b")).
		NaturalJoin(nodes.DataSet("c"), nodes.LeftJoin)
	assertManagerSQL(t, m, "SELECT * FROM ((a CROSS JOIN b) NATURAL LEFT JOIN c)")

	m = NewSelectManager(nodes.DataSet("a")).LeftJoin(nodes.DataSet("b")).Natural()
	assertManagerSQL(t, m, "SELECT * FROM (a NATURAL LEFT JOIN b)")
}

func TestUsingColumnsAreUnqualified(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("a")).Join(nodes.DataSet("b")).Using("a.id")
	assertManagerSQL(t, m, "SELECT * FROM (a INNER JOIN b USING (id))")
}

func TestJoinWithoutFromPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewSelectManager(nil).CrossJoin(nodes.DataSet("b"))
}

// --- Ordering, limits, distinct ---

func TestOrderLimitOffset(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city")).
		Select(nodes.Property("name")).
		OrderBy(nodes.Property("pop"), nodes.Desc).
		OrderBy(nodes.Property("name"), nodes.Asc).
		Limit(10).
		Offset(20)
	assertManagerSQL(t, m, "SELECT name FROM city ORDER BY pop DESC, name ASC LIMIT 10 OFFSET 20")

	m.Limit(0).Offset(0)
	assertManagerSQL(t, m, "SELECT name FROM city ORDER BY pop DESC, name ASC")
}

func TestDistinct(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city")).Select(nodes.Property("uf")).Distinct()
	assertManagerSQL(t, m, "SELECT DISTINCT uf FROM city")

	m.Distinct(false)
	assertManagerSQL(t, m, "SELECT uf FROM city")

	m.DistinctOn(nodes.Property("uf"))
	assertManagerSQL(t, m, "SELECT DISTINCT ON (uf) uf FROM city")
}

// --- Sub-selects ---

func TestAsSubSelect(t *testing.T) {
	t.Parallel()
	inner := NewSelectManager(nodes.DataSet("city")).
		Select(nodes.Property("uf")).
		Where(nodes.Property("capital").Eq(true))
	m := NewSelectManager(inner.As("capitals")).Select(nodes.Property("uf"))
	assertManagerSQL(t, m, "SELECT uf FROM (SELECT uf FROM city WHERE capital = TRUE) AS capitals")

	inner.Where(nodes.Property("pop").Gt(1))
	assertManagerSQL(t, m, "SELECT uf FROM (SELECT uf FROM city WHERE capital = TRUE) AS capitals")
}

// --- Visitors ---

func TestToSQLDelegatesToVisitor(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city"))

	sql, params, err := m.ToSQL(testutil.StubVisitor{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != "select" {
		t.Errorf("expected 'select', got %q", sql)
	}
	if params != nil {
		t.Errorf("expected nil params for non-parameterizer, got %v", params)
	}
}

func TestToSQLParamsWithParameterizer(t *testing.T) {
	t.Parallel()
	v := postgis(t, visitors.WithParams())
	m := NewSelectManager(nodes.DataSet("city")).Where(nodes.Property("uf").Eq("SP"))

	for range 2 {
		sql, params, err := m.ToSQL(v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sql != "SELECT * FROM city WHERE uf = $1" {
			t.Errorf("unexpected SQL %q", sql)
		}
		if len(params) != 1 || params[0] != "SP" {
			t.Errorf("expected params [SP], got %v", params)
		}
	}
}

func TestRenderErrorReturnsNoSQL(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city")).Where(nodes.NewFunction("unknown_fn"))
	sql, params, err := m.ToSQL(postgis(t))
	if !dialect.ErrUnsupportedFunction.Is(err) {
		t.Fatalf("expected unsupported function, got %v", err)
	}
	if sql != "" || params != nil {
		t.Errorf("expected no output on error, got %q %v", sql, params)
	}
}

// --- Transformer plugin support ---

// countingTransformer appends a where clause and counts invocations.
type countingTransformer struct {
	plugins.BaseTransformer
	called int
}

func (ct *countingTransformer) TransformSelect(sel *nodes.Select) (*nodes.Select, error) {
	ct.called++
	plugins.AddCondition(sel, nodes.Property("injected").Eq("by_plugin"))
	return sel, nil
}

func (ct *countingTransformer) TransformInsert(stmt *nodes.Insert) (*nodes.Insert, error) {
	ct.called++
	return stmt, nil
}

// failingTransformer returns an error.
type failingTransformer struct {
	plugins.BaseTransformer
}

func (failingTransformer) TransformSelect(*nodes.Select) (*nodes.Select, error) {
	return nil, errors.New("policy violation: access denied")
}

func (failingTransformer) TransformInsert(*nodes.Insert) (*nodes.Insert, error) {
	return nil, errors.New("policy violation: access denied")
}

func TestUseRegistersTransformer(t *testing.T) {
	t.Parallel()
	ct := &countingTransformer{}
	m := NewSelectManager(nodes.DataSet("city"))
	if m.Use(ct) != m {
		t.Error("expected Use to return the same SelectManager")
	}
	if len(m.Transformers()) != 1 {
		t.Fatalf("expected 1 transformer, got %d", len(m.Transformers()))
	}

	assertManagerSQL(t, m, "SELECT * FROM city WHERE injected = 'by_plugin'")
	if ct.called != 1 {
		t.Errorf("expected transformer called once, got %d", ct.called)
	}
}

func TestTransformerDoesNotModifyOriginal(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(nodes.DataSet("city")).Where(nodes.Property("active").Eq(true))
	m.Use(&countingTransformer{})

	_, _, _ = m.ToSQL(testutil.StubVisitor{})

	if _, ok := m.Statement.Where.(*nodes.BinaryFunction); !ok || m.Statement.Where.(*nodes.BinaryFunction).Name != "=" {
		t.Errorf("expected original where to be untouched, got %#v", m.Statement.Where)
	}
}

func TestTransformerErrorStopsGeneration(t *testing.T) {
	t.Parallel()
	ct := &countingTransformer{}
	m := NewSelectManager(nodes.DataSet("city"))
	m.Use(failingTransformer{}).Use(ct)

	sql, params, err := m.ToSQL(testutil.StubVisitor{})
	if err == nil {
		t.Fatal("expected error from failing transformer")
	}
	if sql != "" || params != nil {
		t.Errorf("expected empty output on error, got %q %v", sql, params)
	}
	if err.Error() != "policy violation: access denied" {
		t.Errorf("unexpected error message: %v", err)
	}
	if ct.called != 0 {
		t.Error("expected second transformer to not be called after first failed")
	}
}

func TestExtentTransformer(t *testing.T) {
	t.Parallel()
	window := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	m := NewSelectManager(nodes.DataSet("city")).
		Where(nodes.Property("uf").Eq("SP")).
		Use(extent.New(window, extent.WithSRID(4326)))
	assertManagerSQL(t, m, "SELECT * FROM city WHERE uf = 'SP' AND geom && ST_MakeEnvelope(0, 0, 1, 1, 4326)")
}

// --- DOT ---

func TestToDotClustersTransformerConditions(t *testing.T) {
	t.Parallel()
	window := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	m := NewSelectManager(nodes.NewJoin(nodes.DataSet("city"), nodes.DataSet("river"), nodes.CrossJoin, nil)).
		Where(nodes.Property("uf").Eq("SP")).
		Use(extent.New(window)).
		Use(&countingTransformer{})

	dot, err := m.ToDot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// extent adds one condition per data set, the counting transformer one
	if got := strings.Count(dot, "subgraph cluster_"); got != 3 {
		t.Errorf("expected 3 clusters, got %d:\n%s", got, dot)
	}
	if !strings.Contains(dot, `label="extent"`) {
		t.Errorf("expected an extent cluster:\n%s", dot)
	}
	if !strings.Contains(dot, `label="*managers.countingTransformer"`) {
		t.Errorf("expected the counting transformer to be labelled by type:\n%s", dot)
	}
}

func TestAddedConjuncts(t *testing.T) {
	t.Parallel()
	a := nodes.Property("a").Eq(1)
	b := nodes.Property("b").Eq(2)
	c := nodes.Property("c").Eq(3)

	if got := addedConjuncts(nil, nil); len(got) != 0 {
		t.Errorf("expected nothing added, got %d", len(got))
	}
	if got := addedConjuncts(a, nodes.And(nodes.And(a, b), c)); len(got) != 2 || got[0] != c || got[1] != b {
		t.Errorf("unexpected conjuncts %v", got)
	}
	if got := addedConjuncts(nil, nodes.And(b, c)); len(got) != 2 {
		t.Errorf("expected both conjuncts of a fresh where, got %d", len(got))
	}
	if got := addedConjuncts(a, b); got != nil {
		t.Errorf("expected a rewritten where to report nothing, got %v", got)
	}
}
