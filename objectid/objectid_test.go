package objectid

import (
	"slices"
	"testing"
	"time"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/testutil"
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/visitors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intSet(t *testing.T, ids ...int) *Set {
	t.Helper()
	s := NewSet()
	require.NoError(t, s.AddProperty("id", 0, Int64))
	for _, id := range ids {
		require.NoError(t, s.Add(New(id)))
	}
	return s
}

func members(s *Set) []string {
	var out []string
	for id := range s.All() {
		out = append(out, id.String())
	}
	return out
}

func TestObjectIdValuesAreCopies(t *testing.T) {
	t.Parallel()
	src := []any{1, "a"}
	id := New(src...)
	src[0] = 99
	vals := id.Values()
	vals[1] = "changed"
	assert.Equal(t, []any{1, "a"}, id.Values())
	assert.Equal(t, "1,a", id.String())
	assert.Equal(t, id.Values(), id.Clone().Values())
}

func TestAddRequiresProperties(t *testing.T) {
	t.Parallel()
	s := NewSet()
	err := s.Add(New(1))
	require.Error(t, err)
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
}

func TestAddRejectsMissingPosition(t *testing.T) {
	t.Parallel()
	s := NewSet()
	require.NoError(t, s.AddProperty("layer", 0, String))
	require.NoError(t, s.AddProperty("fid", 1, Int32))
	err := s.Add(New("roads"))
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
	assert.Zero(t, s.Size())
}

func TestAddPropertyAfterMembers(t *testing.T) {
	t.Parallel()
	s := intSet(t, 1)
	err := s.AddProperty("other", 1, String)
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
}

func TestAddConvertsValues(t *testing.T) {
	t.Parallel()
	s := intSet(t)
	require.NoError(t, s.Add(New("42")))
	assert.True(t, s.Contains(New(42)))
	assert.True(t, s.Contains(New(int16(42))))

	err := s.Add(New("forty-two"))
	require.Error(t, err)
	assert.True(t, ErrInvalidValue.Is(err))
	assert.Equal(t, 1, s.Size())
}

func TestUUIDValuesAreCanonical(t *testing.T) {
	t.Parallel()
	s := NewSet()
	require.NoError(t, s.AddProperty("guid", 0, UUID))
	require.NoError(t, s.Add(New("6BA7B810-9DAD-11D1-80B4-00C04FD430C8")))
	require.NoError(t, s.Add(New("6ba7b810-9dad-11d1-80b4-00c04fd430c8")))
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, []string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}, members(s))

	err := s.Add(New("not-a-uuid"))
	assert.True(t, ErrInvalidValue.Is(err))
}

func TestDuplicatesAreIgnoredAndOrderIsStable(t *testing.T) {
	t.Parallel()
	s := intSet(t, 30, 2, 10, 2, 30)
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, []string{"2", "10", "30"}, members(s))
}

func TestRemove(t *testing.T) {
	t.Parallel()
	s := intSet(t, 1, 2, 3)
	assert.True(t, s.Remove(New(2)))
	assert.False(t, s.Remove(New(2)))
	assert.Equal(t, []string{"1", "3"}, members(s))
}

func TestClearKeepsProperties(t *testing.T) {
	t.Parallel()
	s := intSet(t, 1, 2)
	s.Clear()
	assert.Zero(t, s.Size())
	require.NoError(t, s.Add(New(5)))
	assert.Equal(t, 1, s.Size())
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	s := intSet(t, 1, 2)
	c := s.Clone()
	require.NoError(t, c.Add(New(3)))
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, 3, c.Size())
}

func TestUnion(t *testing.T) {
	t.Parallel()
	a := intSet(t, 1, 2)
	b := intSet(t, 2, 3)
	require.NoError(t, a.Union(b))
	assert.Equal(t, []string{"1", "2", "3"}, members(a))
	assert.Zero(t, b.Size(), "the other set is consumed")
}

func TestUnionWithItself(t *testing.T) {
	t.Parallel()
	a := intSet(t, 1, 2)
	require.NoError(t, a.Union(a))
	assert.Equal(t, []string{"1", "2"}, members(a))
}

func TestUnionConvertsToOwnTypes(t *testing.T) {
	t.Parallel()
	a := intSet(t, 5)
	b := NewSet()
	require.NoError(t, b.AddProperty("id", 0, String))
	require.NoError(t, b.Add(New("7")))
	require.NoError(t, a.Union(b))
	assert.Equal(t, []any{int64(5)}, slices.Collect(a.All())[0].Values())
	assert.Equal(t, []any{int64(7)}, slices.Collect(a.All())[1].Values())
}

func TestUnionRejectsMismatchedMembers(t *testing.T) {
	t.Parallel()
	a := intSet(t, 5)
	b := NewSet()
	require.NoError(t, b.AddProperty("id", 0, String))
	require.NoError(t, b.Add(New("x")))

	err := a.Union(b)
	require.Error(t, err)
	assert.True(t, ErrInvalidValue.Is(err))
	assert.Equal(t, []string{"5"}, members(a))
	assert.Equal(t, 1, b.Size())

	d, err := dialect.Builtin("postgis")
	require.NoError(t, err)
	expr, err := a.Expression("")
	require.NoError(t, err)
	testutil.AssertSQL(t, visitors.NewGenericVisitor(d), expr, "id IN (5)")
}

func TestUnionAdoptsProperties(t *testing.T) {
	t.Parallel()
	a := NewSet()
	b := intSet(t, 7)
	require.NoError(t, a.Union(b))
	assert.Equal(t, []Property{{Name: "id", Position: 0, Type: Int64}}, a.Properties())
	assert.True(t, a.Contains(New(7)))
}

func TestDifference(t *testing.T) {
	t.Parallel()
	a := intSet(t, 1, 2, 3)
	a.Difference(intSet(t, 2, 4))
	assert.Equal(t, []string{"1", "3"}, members(a))

	empty := intSet(t)
	a.Difference(empty)
	assert.Equal(t, 2, a.Size())
}

func TestSymDifference(t *testing.T) {
	t.Parallel()
	a := intSet(t, 1, 2, 3)
	b := intSet(t, 3, 4)
	require.NoError(t, a.SymDifference(b))
	assert.Equal(t, []string{"1", "2", "4"}, members(a))
	assert.Equal(t, []string{"3", "4"}, members(b))
}

func TestSetAlgebraProperties(t *testing.T) {
	t.Parallel()
	samples := [][2][]int{
		{{1, 2, 3}, {3, 4, 5}},
		{{}, {1}},
		{{9, 8, 7}, {}},
		{{1, 2}, {1, 2}},
	}
	for _, sample := range samples {
		a, b := sample[0], sample[1]

		// |A ∪ B| = |A| + |B| - |A ∩ B|
		inter := 0
		for _, x := range a {
			if slices.Contains(b, x) {
				inter++
			}
		}
		u := intSet(t, a...)
		require.NoError(t, u.Union(intSet(t, b...)))
		assert.Equal(t, len(a)+len(b)-inter, u.Size())

		// A \ B has no member of B
		d := intSet(t, a...)
		d.Difference(intSet(t, b...))
		for _, x := range b {
			assert.False(t, d.Contains(New(x)))
		}

		// A Δ A = ∅
		s := intSet(t, a...)
		require.NoError(t, s.SymDifference(s.Clone()))
		assert.Zero(t, s.Size())

		self := intSet(t, a...)
		require.NoError(t, self.Union(self))
		assert.Equal(t, len(a), self.Size())
	}
}

func TestExpression(t *testing.T) {
	t.Parallel()
	d, err := dialect.Builtin("postgis")
	require.NoError(t, err)
	v := visitors.NewGenericVisitor(d)

	s := NewSet()
	require.NoError(t, s.AddProperty("layer", 0, String))
	require.NoError(t, s.AddProperty("fid", 1, Int32))
	require.NoError(t, s.Add(New("roads", 7)))
	require.NoError(t, s.Add(New("rivers", 3)))

	expr, err := s.Expression("")
	require.NoError(t, err)
	testutil.AssertSQL(t, v, expr, "layer IN ('rivers', 'roads') AND fid IN (3, 7)")

	sel := nodes.NewSelect()
	sel.SetFrom(nodes.NewJoin(nodes.DataSet("features").As("f"), nodes.DataSet("layers").As("l"),
		nodes.InnerJoin, nodes.Using("layer")))
	expr, err = s.Expression("f")
	require.NoError(t, err)
	sel.SetWhere(expr)
	testutil.AssertSQL(t, v, sel,
		"SELECT * FROM (features AS f INNER JOIN layers AS l USING (layer)) "+
			"WHERE f.layer IN ('rivers', 'roads') AND f.fid IN (3, 7)")
}

func TestExpressionTypedLiterals(t *testing.T) {
	t.Parallel()
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSet()
	require.NoError(t, s.AddProperty("at", 0, DateTime))
	require.NoError(t, s.Add(New(stamp)))

	expr, err := s.Expression("")
	require.NoError(t, err)
	in, ok := expr.(*nodes.In)
	require.True(t, ok)
	require.Len(t, in.Values, 1)
	assert.Equal(t, nodes.LiteralTime(stamp), in.Values[0])
}

func TestExpressionOnEmptySet(t *testing.T) {
	t.Parallel()
	_, err := intSet(t).Expression("")
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
	_, err = NewSet().Expression("")
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
}

func TestParsePropertyType(t *testing.T) {
	t.Parallel()
	for typ := String; typ <= UUID; typ++ {
		got, err := ParsePropertyType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	got, err := ParsePropertyType("INT64")
	require.NoError(t, err)
	assert.Equal(t, Int64, got)

	_, err = ParsePropertyType("geometry")
	assert.True(t, nodes.ErrPreconditionViolation.Is(err))
}
