package quoting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteStyles(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input                   string
		double, backtick, brack string
	}{
		{"city", `"city"`, "`city`", "[city]"},
		{"", `""`, "``", "[]"},
		{"my layer", `"my layer"`, "`my layer`", "[my layer]"},
		{`a"b`, `"a""b"`, "`a\"b`", `[a"b]`},
		{"a`b", "\"a`b\"", "`a``b`", "[a`b]"},
		{"a]b", `"a]b"`, "`a]b`", "[a]]b]"},
		{`city"."secrets`, `"city"".""secrets"`, "`city\".\"secrets`", `[city"."secrets]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.double, DoubleQuote(tt.input), tt.input)
		assert.Equal(t, tt.backtick, Backtick(tt.input), tt.input)
		assert.Equal(t, tt.brack, Bracket(tt.input), tt.input)
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"", "1st", "my layer", "uf-code", "café", "select", "Order", "top"} {
		assert.True(t, NeedsQuoting(name), name)
	}
	for _, name := range []string{"city", "_tmp", "geom2", "UF", "lower_x"} {
		assert.False(t, NeedsQuoting(name), name)
	}
}

func TestIfNeededAndDotted(t *testing.T) {
	t.Parallel()
	q := IfNeeded(DoubleQuote)
	assert.Equal(t, "city", q("city"))
	assert.Equal(t, "*", q("*"))
	assert.Equal(t, `"order"`, q("order"))
	assert.Equal(t, `c."my col"`, Dotted("c.my col", q))
	assert.Equal(t, "[c].[geom]", Dotted("c.geom", Bracket))
	assert.Equal(t, "`from`.uf", Dotted("from.uf", IfNeeded(Backtick)))
}

func TestEscapeString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input, standard, mysql string
	}{
		{"", "", ""},
		{"São Paulo", "São Paulo", "São Paulo"},
		{"it's", "it''s", "it''s"},
		{`C:\data`, `C:\data`, `C:\\data`},
		{`\'`, `\''`, `\\''`},
		{"'; DROP TABLE city; --", "''; DROP TABLE city; --", "''; DROP TABLE city; --"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.standard, EscapeString(tt.input), tt.input)
		assert.Equal(t, tt.mysql, EscapeMySQLString(tt.input), tt.input)
	}
}
