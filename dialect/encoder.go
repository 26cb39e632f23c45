package dialect

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bawdo/geosql/nodes"
)

// FunctionEncoder renders alias(arg0, arg1, ...).
type FunctionEncoder struct {
	Alias string
}

// NewFunctionEncoder creates a FunctionEncoder.
func NewFunctionEncoder(alias string) *FunctionEncoder { return &FunctionEncoder{Alias: alias} }

func (e *FunctionEncoder) Encode(r Renderer, args []nodes.Expression) (string, error) {
	var sb strings.Builder
	sb.WriteString(e.Alias)
	sb.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		s, err := r.Render(arg)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	sb.WriteString(")")
	return sb.String(), nil
}

// BinaryOpEncoder renders arg0 alias arg1. More than two arguments fold
// left: arg0 alias arg1 alias arg2. Operands that are themselves operators
// of lower precedence are parenthesised.
type BinaryOpEncoder struct {
	Alias string
}

// NewBinaryOpEncoder creates a BinaryOpEncoder.
func NewBinaryOpEncoder(alias string) *BinaryOpEncoder { return &BinaryOpEncoder{Alias: alias} }

func (e *BinaryOpEncoder) Encode(r Renderer, args []nodes.Expression) (string, error) {
	if len(args) < 2 {
		return "", nodes.ErrPreconditionViolation.New(
			fmt.Sprintf("operator %s needs at least 2 arguments, got %d", e.Alias, len(args)))
	}
	prec := precedence(e.Alias)
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(e.Alias)
			sb.WriteString(" ")
		}
		s, err := r.Render(arg)
		if err != nil {
			return "", err
		}
		childPrec, childAlias, infix := operatorOf(r.Dialect(), arg)
		if infix && needsParens(prec, e.Alias, childPrec, childAlias, i > 0) {
			s = "(" + s + ")"
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

// UnaryOpEncoder renders alias arg0. An operator operand is always
// parenthesised: NOT (a = b).
type UnaryOpEncoder struct {
	Alias string
}

// NewUnaryOpEncoder creates a UnaryOpEncoder.
func NewUnaryOpEncoder(alias string) *UnaryOpEncoder { return &UnaryOpEncoder{Alias: alias} }

func (e *UnaryOpEncoder) Encode(r Renderer, args []nodes.Expression) (string, error) {
	if len(args) != 1 {
		return "", nodes.ErrPreconditionViolation.New(
			fmt.Sprintf("operator %s needs exactly 1 argument, got %d", e.Alias, len(args)))
	}
	s, err := r.Render(args[0])
	if err != nil {
		return "", err
	}
	if _, _, infix := operatorOf(r.Dialect(), args[0]); infix {
		s = "(" + s + ")"
	}
	return e.Alias + " " + s, nil
}

// TemplateEncoder substitutes rendered arguments into a template. $1 is
// the first argument, $2 the second and so on; $$ is a literal dollar
// sign. Arguments the template does not reference are not rendered.
type TemplateEncoder struct {
	Alias    string
	Template string
}

// NewTemplateEncoder creates a TemplateEncoder. Alias is the operator
// keyword used to decide operand parenthesisation, e.g. "LIKE".
func NewTemplateEncoder(alias, template string) *TemplateEncoder {
	return &TemplateEncoder{Alias: alias, Template: template}
}

func (e *TemplateEncoder) Encode(r Renderer, args []nodes.Expression) (string, error) {
	var sb strings.Builder
	t := e.Template
	for i := 0; i < len(t); i++ {
		c := t[i]
		if c != '$' || i+1 >= len(t) {
			sb.WriteByte(c)
			continue
		}
		if t[i+1] == '$' {
			sb.WriteByte('$')
			i++
			continue
		}
		j := i + 1
		for j < len(t) && t[j] >= '0' && t[j] <= '9' {
			j++
		}
		if j == i+1 {
			sb.WriteByte(c)
			continue
		}
		idx, _ := strconv.Atoi(t[i+1 : j])
		if idx < 1 || idx > len(args) {
			return "", nodes.ErrPreconditionViolation.New(
				fmt.Sprintf("template %q references $%d but %s has %d arguments", e.Template, idx, e.Alias, len(args)))
		}
		s, err := r.Render(args[idx-1])
		if err != nil {
			return "", err
		}
		if _, _, infix := operatorOf(r.Dialect(), args[idx-1]); infix {
			s = "(" + s + ")"
		}
		sb.WriteString(s)
		i = j - 1
	}
	return sb.String(), nil
}

// operatorOf reports whether e renders as an infix or prefix operator in
// d, and if so with which precedence and alias.
func operatorOf(d *Dialect, e nodes.Expression) (int, string, bool) {
	var name string
	switch n := e.(type) {
	case *nodes.Function:
		name = n.Name
	case *nodes.BinaryFunction:
		name = n.Name
	case *nodes.UnaryFunction:
		name = n.Name
	case *nodes.Like:
		name = nodes.FuncLike
	case *nodes.In:
		return precedence("IN"), "IN", true
	default:
		return 0, "", false
	}
	if d == nil {
		return 0, "", false
	}
	enc, ok := d.Find(name)
	if !ok {
		return 0, "", false
	}
	switch enc := enc.(type) {
	case *BinaryOpEncoder:
		return precedence(enc.Alias), enc.Alias, true
	case *UnaryOpEncoder:
		return precedence(enc.Alias), enc.Alias, true
	case *TemplateEncoder:
		return precedence(enc.Alias), enc.Alias, true
	case *LikeEncoder:
		return precedence(nodes.FuncLike), nodes.FuncLike, true
	}
	return 0, "", false
}

var operatorPrecedence = map[string]int{
	"OR":  1,
	"AND": 2,
	"NOT": 3,
	"=":   4, "<>": 4, "!=": 4, "<": 4, ">": 4, "<=": 4, ">=": 4,
	"LIKE": 4, "IN": 4, "IS NULL": 4, "&&": 4,
	"+": 5, "-": 5, "||": 5,
	"*": 6, "/": 6, "%": 6,
}

// precedence returns the binding strength of an operator alias; 0 means
// unknown.
func precedence(alias string) int {
	return operatorPrecedence[strings.ToUpper(alias)]
}

var associative = map[string]bool{"AND": true, "OR": true, "+": true, "*": true}

// needsParens decides whether a child operator must be wrapped when it is
// an operand of parent. Unknown operators are always wrapped.
func needsParens(parentPrec int, parentAlias string, childPrec int, childAlias string, right bool) bool {
	if parentPrec == 0 || childPrec == 0 {
		return true
	}
	if childPrec < parentPrec {
		return true
	}
	// Comparisons are not associative.
	if childPrec == parentPrec && childPrec == precedence("=") {
		return true
	}
	if right && childPrec == parentPrec {
		return !(strings.EqualFold(parentAlias, childAlias) && associative[strings.ToUpper(childAlias)])
	}
	return false
}

// LikeEscape selects how a LikeEncoder writes pattern characters that
// must match literally.
type LikeEscape int

const (
	// EscapeClause prefixes them with a backslash and appends ESCAPE '\'.
	EscapeClause LikeEscape = iota
	// EscapeBrackets wraps them in brackets, as Jet and SQL Server do.
	EscapeBrackets
)

// LikeEncoder renders a LIKE predicate with SQL's own wildcards. Its
// arguments are those of nodes.Like: the expression, then the pattern,
// wildcard, single character and escape character as string literals.
// The pattern is rewritten so the configured wildcard becomes %, the
// single character becomes _, and escaped or stray % and _ match
// themselves.
type LikeEncoder struct {
	Escape LikeEscape
}

// NewLikeEncoder creates a LikeEncoder.
func NewLikeEncoder(escape LikeEscape) *LikeEncoder { return &LikeEncoder{Escape: escape} }

func (e *LikeEncoder) Encode(r Renderer, args []nodes.Expression) (string, error) {
	if len(args) != 5 {
		return "", nodes.ErrPreconditionViolation.New(
			fmt.Sprintf("LIKE needs 5 arguments, got %d", len(args)))
	}
	var marks [4]string
	for i := range marks {
		lit, ok := args[i+1].(*nodes.LiteralNode)
		if !ok {
			return "", nodes.ErrPreconditionViolation.New("LIKE pattern arguments must be string literals")
		}
		s, ok := lit.Value.(string)
		if !ok {
			return "", nodes.ErrPreconditionViolation.New("LIKE pattern arguments must be string literals")
		}
		marks[i] = s
	}

	expr, err := r.Render(args[0])
	if err != nil {
		return "", err
	}
	if _, _, infix := operatorOf(r.Dialect(), args[0]); infix {
		expr = "(" + expr + ")"
	}
	pattern, err := r.Render(nodes.LiteralString(e.translate(marks[0], marks[1], marks[2], marks[3])))
	if err != nil {
		return "", err
	}
	sql := expr + " LIKE " + pattern
	if e.Escape == EscapeClause {
		esc, err := r.Render(nodes.LiteralString(`\`))
		if err != nil {
			return "", err
		}
		sql += " ESCAPE " + esc
	}
	return sql, nil
}

func (e *LikeEncoder) translate(pattern, wildCard, singleChar, escapeChar string) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); {
		rest := pattern[i:]
		switch {
		case escapeChar != "" && strings.HasPrefix(rest, escapeChar):
			i += len(escapeChar)
			if i >= len(pattern) {
				e.literal(&sb, escapeChar)
				continue
			}
			_, size := utf8.DecodeRuneInString(pattern[i:])
			e.literal(&sb, pattern[i:i+size])
			i += size
		case wildCard != "" && strings.HasPrefix(rest, wildCard):
			sb.WriteByte('%')
			i += len(wildCard)
		case singleChar != "" && strings.HasPrefix(rest, singleChar):
			sb.WriteByte('_')
			i += len(singleChar)
		default:
			_, size := utf8.DecodeRuneInString(rest)
			e.literal(&sb, rest[:size])
			i += size
		}
	}
	return sb.String()
}

func (e *LikeEncoder) literal(sb *strings.Builder, s string) {
	for _, c := range s {
		switch {
		case e.Escape == EscapeClause && (c == '%' || c == '_' || c == '\\'):
			sb.WriteByte('\\')
			sb.WriteRune(c)
		case e.Escape == EscapeBrackets && (c == '%' || c == '_' || c == '['):
			sb.WriteByte('[')
			sb.WriteRune(c)
			sb.WriteByte(']')
		default:
			sb.WriteRune(c)
		}
	}
}
