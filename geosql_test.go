package geosql_test

import (
	"testing"

	"github.com/bawdo/geosql"
	"github.com/bawdo/geosql/filter"
	"github.com/bawdo/geosql/plugins/extent"
	"github.com/paulmach/orb"
)

// TestSimpleImportStyle demonstrates using the convenience package
func TestSimpleImportStyle(t *testing.T) {
	t.Parallel()
	query := geosql.NewSelect(geosql.DataSet("city")).
		Select(geosql.Property("name")).
		Where(geosql.Property("uf").Eq("SP")).
		Limit(10)

	v, err := geosql.NewVisitor("postgis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sql, _, err := query.ToSQL(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "SELECT name FROM city WHERE uf = 'SP' LIMIT 10"
	if sql != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, sql)
	}
}

func TestParameterisedQuery(t *testing.T) {
	t.Parallel()
	query := geosql.NewSelect(geosql.DataSet("city")).
		Where(geosql.Property("uf").Eq("SP"), geosql.Property("pop").Gt(1000))

	v, err := geosql.NewVisitor("mysql", geosql.WithParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sql, params, err := query.ToSQL(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "SELECT * FROM city WHERE uf = ? AND pop > ?"
	if sql != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, sql)
	}
	if len(params) != 2 {
		t.Errorf("expected 2 params, got %v", params)
	}
}

func TestEncodedFilterWithExtent(t *testing.T) {
	t.Parallel()
	cond, err := geosql.Encode(filter.New(filter.NewBBOX("geom", orb.Bound{Max: orb.Point{10, 10}}, 4326)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	query := geosql.NewSelect(geosql.DataSet("city")).
		Where(cond).
		Use(extent.New(orb.Bound{Max: orb.Point{1, 1}}, extent.WithColumn("shape")))

	v, err := geosql.NewVisitor("postgis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sql, _, err := query.ToSQL(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "SELECT * FROM city WHERE ST_Intersects(geom, ST_MakeEnvelope(0, 0, 10, 10, 4326)) " +
		"AND shape && ST_MakeEnvelope(0, 0, 1, 1)"
	if sql != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, sql)
	}
}

func TestRenderDocument(t *testing.T) {
	t.Parallel()
	sql, params, err := geosql.RenderDocument([]byte(`
from: [city]
fields: [name]
where:
  equal_to: {property: uf, value: SP}
`), "postgis", geosql.WithParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "SELECT name FROM city WHERE uf = $1"
	if sql != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, sql)
	}
	if len(params) != 1 || params[0] != "SP" {
		t.Errorf("expected params [SP], got %v", params)
	}
}

func TestUnknownBackend(t *testing.T) {
	t.Parallel()
	_, err := geosql.NewVisitor("oracle")
	if !geosql.ErrUnknownBackend.Is(err) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
