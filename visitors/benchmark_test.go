package visitors

import (
	"testing"

	"github.com/bawdo/geosql/nodes"
)

// BenchmarkSimpleSelect benchmarks a basic single-data-set SELECT.
func BenchmarkSimpleSelect(b *testing.B) {
	sel := nodes.NewSelect(
		nodes.NewField(nodes.Property("id"), ""),
		nodes.NewField(nodes.Property("name"), ""),
	)
	sel.SetFrom(nodes.DataSet("city"))
	sel.SetWhere(nodes.And(nodes.Property("uf").Eq("SP"), nodes.Property("pop").Gt(1000)))
	sel.OrderBy = []*nodes.OrderByItem{nodes.NewOrderByItem(nodes.Property("name"), nodes.Asc)}
	sel.Limit = 10
	v := NewPostGISVisitor(builtin(b, "postgis"), WithParams())

	b.ResetTimer()
	for b.Loop() {
		v.Reset()
		_, _ = sel.Accept(v)
	}
}

// BenchmarkSpatialJoin benchmarks a join filtered by an envelope and a
// conjunction of spatial predicates.
func BenchmarkSpatialJoin(b *testing.B) {
	city, state := nodes.DataSet("city").As("c"), nodes.DataSet("state").As("s")
	sel := nodes.NewSelect(nodes.NewField(city.Col("name"), ""), nodes.NewField(state.Col("name"), "state"))
	sel.SetFrom(nodes.NewJoin(city, state, nodes.InnerJoin,
		nodes.On(nodes.NewBinaryFunction(nodes.FuncSTWithin, city.Col("geom"), state.Col("geom")))))
	sel.SetWhere(nodes.Conjoin(
		nodes.STEnvelopeIntersects(city.Col("geom"), nodes.Envelope(-50, -25, -44, -19, 4326)),
		city.Col("pop").Gt(100000),
		state.Col("name").Like("S%"),
	))
	v := NewPostGISVisitor(builtin(b, "postgis"))

	b.ResetTimer()
	for b.Loop() {
		_, _ = sel.Accept(v)
	}
}
