package visitors

import (
	"testing"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/testutil"
	"github.com/bawdo/geosql/nodes"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtin(t testing.TB, name string) *dialect.Dialect {
	t.Helper()
	d, err := dialect.Builtin(name)
	require.NoError(t, err)
	return d
}

func generic(t testing.TB, opts ...Option) *GenericVisitor {
	return NewGenericVisitor(builtin(t, "postgis"), opts...)
}

func cityQuery() *nodes.Select {
	sel := nodes.NewSelect(nodes.NewField(nodes.Property("name"), ""))
	sel.SetFrom(nodes.DataSet("city"))
	sel.SetWhere(nodes.Property("uf").Eq("SP"))
	return sel
}

func TestSelectWithWhere(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, generic(t), cityQuery(), "SELECT name FROM city WHERE uf = 'SP'")
}

func TestSelectAllClauses(t *testing.T) {
	t.Parallel()
	count := nodes.NewFunction("COUNT", nodes.Star())
	sel := &nodes.Select{
		Distinct: nodes.Distinct{},
		Fields: []*nodes.Field{
			nodes.NewField(nodes.Property("uf"), ""),
			nodes.NewField(count, "n"),
		},
		From:    []nodes.FromItem{nodes.DataSet("city")},
		Where:   nodes.Property("pop").Gt(1000),
		GroupBy: []nodes.Expression{nodes.Property("uf")},
		Having:  nodes.GreaterThan(count.Clone(), nodes.Literal(2)),
		OrderBy: []*nodes.OrderByItem{nodes.NewOrderByItem(nodes.Property("uf"), nodes.Desc)},
		Limit:   10,
		Offset:  20,
	}
	testutil.AssertSQL(t, generic(t), sel,
		"SELECT DISTINCT uf, COUNT(*) AS n FROM city WHERE pop > 1000 GROUP BY uf HAVING COUNT(*) > 2 ORDER BY uf DESC LIMIT 10 OFFSET 20")
}

func TestSelectOmitsAbsentClauses(t *testing.T) {
	t.Parallel()
	v := generic(t)
	sel := nodes.NewSelect()
	sel.SetFrom(nodes.DataSet("city"))
	testutil.AssertSQL(t, v, sel, "SELECT * FROM city")

	testutil.AssertSQL(t, v, nodes.NewSelect(nodes.NewField(nodes.Literal(1), "one")), "SELECT 1 AS one")
}

func TestSelectDistinctOn(t *testing.T) {
	t.Parallel()
	sel := cityQuery()
	sel.Where = nil
	sel.Distinct = nodes.Distinct{nodes.Property("uf"), nodes.Property("name")}
	testutil.AssertSQL(t, generic(t), sel, "SELECT DISTINCT ON (uf, name) name FROM city")
}

func TestSelectOrderDefaultsToAscending(t *testing.T) {
	t.Parallel()
	sel := cityQuery()
	sel.OrderBy = []*nodes.OrderByItem{{Expr: nodes.Property("name")}}
	testutil.AssertSQL(t, generic(t), sel, "SELECT name FROM city WHERE uf = 'SP' ORDER BY name ASC")
}

func TestPropertyNameKeepsOnlyLastSegment(t *testing.T) {
	t.Parallel()
	sel := nodes.NewSelect(nodes.NewField(nodes.Property("public.city.name"), ""))
	sel.SetFrom(nodes.DataSet("public.city"))
	sel.SetWhere(nodes.Property("city.uf").Eq("SP"))
	testutil.AssertSQL(t, generic(t), sel, "SELECT name FROM public.city WHERE uf = 'SP'")
}

func TestPropertyNameQuoting(t *testing.T) {
	t.Parallel()
	d := builtin(t, "postgis")
	cases := []struct {
		name string
		v    nodes.Visitor
		prop string
		want string
	}{
		{"plain", NewGenericVisitor(d), "name", "name"},
		{"reserved", NewGenericVisitor(d), "order", `"order"`},
		{"space", NewPostGISVisitor(d), "my col", `"my col"`},
		{"leading digit", NewSQLiteVisitor(d), "1st", `"1st"`},
		{"mysql", NewMySQLVisitor(d), "my col", "`my col`"},
		{"ado", NewADOVisitor(d), "my col", "[my col]"},
		{"star", NewADOVisitor(d), "*", "*"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertSQL(t, tc.v, nodes.Property(tc.prop), tc.want)
		})
	}
}

func TestEmptyPropertyNameFails(t *testing.T) {
	t.Parallel()
	err := testutil.AssertSQLError(t, generic(t), nodes.Property(""))
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
}

func TestJoinRendering(t *testing.T) {
	t.Parallel()
	a, b, c := nodes.DataSet("a"), nodes.DataSet("b"), nodes.DataSet("c")
	on := nodes.On(nodes.EqualTo(nodes.Property("a.id"), nodes.Property("b.id")))

	cases := []struct {
		name string
		join *nodes.Join
		want string
	}{
		{"left join on", nodes.NewJoin(a, b, nodes.LeftJoin, on), "(a LEFT JOIN b ON (a.id = b.id))"},
		{"inner join using", nodes.NewJoin(a, b, nodes.InnerJoin, nodes.Using("id", "uf")), "(a INNER JOIN b USING (id, uf))"},
		{"using drops qualifiers", nodes.NewJoin(a, b, nodes.InnerJoin, nodes.Using("a.id", "b.uf")), "(a INNER JOIN b USING (id, uf))"},
		{"cross join", nodes.NewJoin(a, b, nodes.CrossJoin, nil), "(a CROSS JOIN b)"},
		{"natural join", nodes.NewJoin(a, b, nodes.NaturalJoin, nil), "(a NATURAL JOIN b)"},
		{"plain join", nodes.NewJoin(a, b, nodes.PlainJoin, on), "(a JOIN b ON (a.id = b.id))"},
		{"full outer join", nodes.NewJoin(a, b, nodes.FullOuterJoin, on), "(a FULL OUTER JOIN b ON (a.id = b.id))"},
		{
			"chained",
			nodes.NewJoin(
				nodes.NewJoin(a, b, nodes.InnerJoin, on),
				c, nodes.RightJoin,
				nodes.On(nodes.EqualTo(b.Col("id"), c.Col("b_id")))),
			"((a INNER JOIN b ON (a.id = b.id)) RIGHT JOIN c ON (b.id = c.b_id))",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertSQL(t, generic(t), tc.join, tc.want)
		})
	}
}

func TestNaturalFlag(t *testing.T) {
	t.Parallel()
	j := nodes.NewJoin(nodes.DataSet("a"), nodes.DataSet("b").As("x"), nodes.LeftJoin, nil)
	j.Natural = true
	testutil.AssertSQL(t, generic(t), j, "(a NATURAL LEFT JOIN b AS x)")
}

func TestSelectOverJoinKeepsQualifiers(t *testing.T) {
	t.Parallel()
	city, state := nodes.DataSet("city").As("c"), nodes.DataSet("state").As("s")
	sel := nodes.NewSelect(
		nodes.NewField(city.Col("name"), ""),
		nodes.NewField(state.Col("name"), "state"),
	)
	sel.SetFrom(nodes.NewJoin(city, state, nodes.LeftJoin,
		nodes.On(nodes.EqualTo(city.Col("uf"), state.Col("uf")))))
	sel.SetWhere(state.Col("region").Eq("SE"))
	testutil.AssertSQL(t, generic(t), sel,
		"SELECT c.name, s.name AS state FROM (city AS c LEFT JOIN state AS s ON (c.uf = s.uf)) WHERE s.region = 'SE'")
}

func TestSelectOverSeveralDataSetsKeepsQualifiers(t *testing.T) {
	t.Parallel()
	sel := nodes.NewSelect(nodes.NewField(nodes.Property("c.name"), ""))
	sel.SetFrom(nodes.DataSet("city").As("c"), nodes.DataSet("state").As("s"))
	sel.SetWhere(nodes.EqualTo(nodes.Property("c.uf"), nodes.Property("s.uf")))
	testutil.AssertSQL(t, generic(t), sel, "SELECT c.name FROM city AS c, state AS s WHERE c.uf = s.uf")
}

func TestSubSelectHasItsOwnScope(t *testing.T) {
	t.Parallel()
	inner := cityQuery()
	inner.Where = nodes.Property("city.uf").Eq("SP")
	sel := nodes.NewSelect(nodes.NewField(nodes.Property("t.name"), ""))
	sel.SetFrom(nodes.NewSubSelect(inner, "t"))
	testutil.AssertSQL(t, generic(t), sel, "SELECT name FROM (SELECT name FROM city WHERE uf = 'SP') AS t")

	joined := nodes.NewSelect()
	joined.SetFrom(nodes.NewJoin(nodes.DataSet("state").As("s"), nodes.NewSubSelect(inner.Clone(), "t"),
		nodes.InnerJoin, nodes.On(nodes.EqualTo(nodes.Property("s.capital"), nodes.Property("t.name")))))
	testutil.AssertSQL(t, generic(t), joined,
		"SELECT * FROM (state AS s INNER JOIN (SELECT name FROM city WHERE uf = 'SP') AS t ON (s.capital = t.name))")
}

func TestInsert(t *testing.T) {
	t.Parallel()
	v := generic(t)

	ins := nodes.NewInsert(nodes.DataSet("city"))
	ins.Fields = []*nodes.PropertyName{nodes.Property("name"), nodes.Property("city.uf")}
	ins.Values = [][]nodes.Expression{
		{nodes.Literal("Campinas"), nodes.Literal("SP")},
		{nodes.Literal("Santos"), nodes.Literal("SP")},
	}
	testutil.AssertSQL(t, v, ins, "INSERT INTO city (name, uf) VALUES ('Campinas', 'SP'), ('Santos', 'SP')")

	archive := nodes.NewInsert(nodes.DataSet("archive"))
	archive.Fields = []*nodes.PropertyName{nodes.Property("name")}
	archive.SetSelect(cityQuery())
	testutil.AssertSQL(t, v, archive, "INSERT INTO archive (name) SELECT name FROM city WHERE uf = 'SP'")

	bare := nodes.NewInsert(nodes.DataSet("archive"))
	bare.SetSelect(cityQuery())
	testutil.AssertSQL(t, v, bare, "INSERT INTO archive SELECT name FROM city WHERE uf = 'SP'")
}

func TestInsertWithSelectAndValuesFails(t *testing.T) {
	t.Parallel()
	ins := nodes.NewInsert(nodes.DataSet("city"))
	ins.SetSelect(cityQuery())
	ins.Values = [][]nodes.Expression{{nodes.Literal("x")}}
	err := testutil.AssertSQLError(t, generic(t), ins)
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
}

func TestUnsupportedFunctionAbortsStatement(t *testing.T) {
	t.Parallel()
	sel := cityQuery()
	sel.SetWhere(nodes.And(
		nodes.Property("uf").Eq("SP"),
		nodes.NewFunction("unknown_fn", nodes.Property("name"))))
	err := testutil.AssertSQLError(t, generic(t), sel)
	assert.True(t, dialect.ErrUnsupportedFunction.Is(err))
	assert.Contains(t, err.Error(), "unknown_fn")
}

func TestUnsupportedFunctionIsLogged(t *testing.T) {
	t.Parallel()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	v := NewGenericVisitor(builtin(t, "postgis"), WithLogger(logger))

	testutil.AssertSQLError(t, v, nodes.NewFunction("unknown_fn"))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "function not in dialect", entry.Message)
	assert.Equal(t, "unknown_fn", entry.Data["function"])
	assert.Equal(t, "generic", entry.Data["backend"])
}

func TestLikeUsesDialectEncoder(t *testing.T) {
	t.Parallel()
	like := nodes.NewLike(nodes.Property("name"), "J%n", "%", "_", `\`)
	testutil.AssertSQL(t, NewPostGISVisitor(builtin(t, "postgis")), like, `name LIKE 'J%n' ESCAPE '\'`)
	testutil.AssertSQL(t, NewADOVisitor(builtin(t, "ado")), like, `name LIKE 'J%n'`)

	ogc := nodes.NewLike(nodes.Property("name"), "J*n?", "*", "?", "!")
	testutil.AssertSQL(t, NewPostGISVisitor(builtin(t, "postgis")), ogc, `name LIKE 'J%n_' ESCAPE '\'`)
	testutil.AssertSQL(t, NewMySQLVisitor(builtin(t, "mysql")), ogc, `name LIKE 'J%n_' ESCAPE '\\'`)
	testutil.AssertSQL(t, NewADOVisitor(builtin(t, "ado")), nodes.NewLike(nodes.Property("name"), "5%*", "*", "?", "!"), `name LIKE '5[%]%'`)

	d := dialect.New("custom")
	d.Insert(nodes.FuncLike, dialect.NewFunctionEncoder("like_match"))
	testutil.AssertSQL(t, NewGenericVisitor(d), like, `like_match(name, 'J%n', '%', '_', '\')`)

	custom := nodes.NewLike(nodes.Property("name"), "J*n?", "*", "?", "!")
	testutil.AssertSQL(t, NewGenericVisitor(d), custom, `like_match(name, 'J*n?', '*', '?', '!')`)
}

func TestInPredicate(t *testing.T) {
	t.Parallel()
	v := generic(t)
	in := nodes.Property("uf").In("SP", "RJ")
	testutil.AssertSQL(t, v, in, "uf IN ('SP', 'RJ')")
	testutil.AssertSQL(t, v, nodes.And(in, nodes.Property("pop").Gt(10)), "uf IN ('SP', 'RJ') AND pop > 10")
	testutil.AssertSQL(t, v, nodes.Not(in), "NOT (uf IN ('SP', 'RJ'))")
}

func TestInWithoutPropertyFails(t *testing.T) {
	t.Parallel()
	err := testutil.AssertSQLError(t, generic(t), nodes.NewIn("", nodes.Literal(1)))
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))

	err = testutil.AssertSQLError(t, generic(t), nodes.NewIn("id"))
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
}

func TestIsNullAndNot(t *testing.T) {
	t.Parallel()
	v := generic(t)
	testutil.AssertSQL(t, v, nodes.Property("name").IsNull(), "name IS NULL")
	testutil.AssertSQL(t, v, nodes.Not(nodes.Property("name").IsNull()), "NOT (name IS NULL)")
	testutil.AssertSQL(t, v, nodes.Or(nodes.Property("a").IsNull(), nodes.Property("b").Eq(1)), "a IS NULL OR b = 1")
}

func TestScalarLiterals(t *testing.T) {
	t.Parallel()
	d := builtin(t, "postgis")
	cases := []struct {
		name string
		v    nodes.Visitor
		lit  nodes.Expression
		want string
	}{
		{"true", NewGenericVisitor(d), nodes.LiteralBool(true), "TRUE"},
		{"false", NewGenericVisitor(d), nodes.LiteralBool(false), "FALSE"},
		{"int16", NewGenericVisitor(d), nodes.LiteralInt16(-7), "-7"},
		{"int32", NewGenericVisitor(d), nodes.LiteralInt32(70000), "70000"},
		{"int64", NewGenericVisitor(d), nodes.LiteralInt64(1 << 40), "1099511627776"},
		{"double", NewGenericVisitor(d), nodes.LiteralDouble(2.5), "2.5"},
		{"whole double", NewGenericVisitor(d), nodes.LiteralDouble(1e6), "1000000"},
		{"string", NewGenericVisitor(d), nodes.LiteralString("O'Brien"), "'O''Brien'"},
		{"backslash", NewPostGISVisitor(d), nodes.LiteralString(`a\b`), `'a\b'`},
		{"mysql backslash", NewMySQLVisitor(d), nodes.LiteralString(`a\b'c`), `'a\\b''c'`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertSQL(t, tc.v, tc.lit, tc.want)
		})
	}
}

func TestArithmeticParenthesisation(t *testing.T) {
	t.Parallel()
	v := generic(t)
	a, b, c := nodes.Property("a"), nodes.Property("b"), nodes.Property("c")
	testutil.AssertSQL(t, v, nodes.Mul(nodes.Add(a, b), c), "(a + b) * c")
	testutil.AssertSQL(t, v, nodes.Sub(a, nodes.Sub(b, c)), "a - (b - c)")
	testutil.AssertSQL(t, v, nodes.GreaterThan(nodes.Div(a, b), nodes.Literal(2)), "a / b > 2")
	testutil.AssertSQL(t, v, nodes.EqualTo(nodes.EqualTo(a, b), nodes.LiteralBool(true)), "(a = b) = TRUE")
}

func TestNilDialectPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewGenericVisitor(nil) })
	assert.Panics(t, func() { NewPostGISVisitor(nil) })
}

func TestCloneRendersIdentically(t *testing.T) {
	t.Parallel()
	v := generic(t)
	city, state := nodes.DataSet("city").As("c"), nodes.DataSet("state").As("s")
	sel := nodes.NewSelect(nodes.NewField(city.Col("name"), "n"))
	sel.SetFrom(nodes.NewJoin(city, state, nodes.InnerJoin, nodes.Using("uf")))
	sel.SetWhere(nodes.And(
		nodes.Property("c.pop").Gt(1000),
		nodes.Or(nodes.Property("c.name").Like("S%"), nodes.Property("s.uf").In("SP", "RJ"))))
	sel.OrderBy = []*nodes.OrderByItem{nodes.NewOrderByItem(nodes.Property("c.name"), nodes.Desc)}

	want, err := sel.Accept(v)
	require.NoError(t, err)
	clone := sel.Clone()
	got, err := clone.Accept(v)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := sel.Accept(v)
	require.NoError(t, err)
	assert.Equal(t, want, again, "rendering is deterministic")

	clone.SetWhere(nodes.Property("c.pop").Lt(10))
	clone.Fields[0].Alias = "other"
	after, err := sel.Accept(v)
	require.NoError(t, err)
	assert.Equal(t, want, after)
}

func TestParamsMode(t *testing.T) {
	t.Parallel()
	sel := cityQuery()
	sel.SetWhere(nodes.And(nodes.Property("uf").Eq("SP"), nodes.Property("pop").Gt(1000)))

	pg := NewPostGISVisitor(builtin(t, "postgis"), WithParams())
	testutil.AssertSQL(t, pg, sel, "SELECT name FROM city WHERE uf = $1 AND pop > $2")
	assert.Equal(t, []any{"SP", int64(1000)}, pg.Params())

	pg.Reset()
	assert.Nil(t, pg.Params())
	testutil.AssertSQL(t, pg, sel, "SELECT name FROM city WHERE uf = $1 AND pop > $2")

	my := NewMySQLVisitor(builtin(t, "mysql"), WithParams())
	testutil.AssertSQL(t, my, sel, "SELECT name FROM city WHERE uf = ? AND pop > ?")
	assert.Len(t, my.Params(), 2)
}

func TestParamsModeKeepsSpatialLiteralsInline(t *testing.T) {
	t.Parallel()
	pg := NewPostGISVisitor(builtin(t, "postgis"), WithParams())
	pred := nodes.And(
		nodes.Property("geom").Intersects(nodes.Envelope(0, 0, 10, 10, 4326)),
		nodes.Property("name").Like("S%"))
	testutil.AssertSQL(t, pg, pred, "ST_Intersects(geom, ST_MakeEnvelope(0, 0, 10, 10, 4326)) AND name LIKE $1 ESCAPE $2")
	assert.Equal(t, []any{"S%", `\`}, pg.Params())
}

func TestParameterizerInterface(t *testing.T) {
	t.Parallel()
	d := builtin(t, "postgis")
	for _, v := range []nodes.Visitor{
		NewGenericVisitor(d), NewPostGISVisitor(d), NewMySQLVisitor(d), NewSQLiteVisitor(d), NewADOVisitor(d),
	} {
		_, ok := v.(nodes.Parameterizer)
		assert.True(t, ok, "%T", v)
	}
}
