package nodes

// Like matches a string expression against a pattern. The wildcard,
// single-character and escape characters belong to the pattern and are
// kept as given; the dialect's LIKE encoder decides how they reach SQL.
type Like struct {
	Expr       Expression
	Pattern    string
	WildCard   string
	SingleChar string
	EscapeChar string
}

// NewLike creates a Like node. A nil expression panics.
func NewLike(expr Expression, pattern, wildCard, singleChar, escapeChar string) *Like {
	checkArgs(FuncLike, []Expression{expr})
	return &Like{
		Expr:       expr,
		Pattern:    pattern,
		WildCard:   wildCard,
		SingleChar: singleChar,
		EscapeChar: escapeChar,
	}
}

func (n *Like) Accept(v Visitor) (string, error) { return v.VisitLike(n) }

func (n *Like) Clone() Expression {
	c := *n
	c.Expr = n.Expr.Clone()
	return &c
}

// Args returns the encoder arguments in dialect order: the expression,
// then the pattern, wildcard, single character and escape character as
// string literals.
func (n *Like) Args() []Expression {
	return []Expression{
		n.Expr,
		LiteralString(n.Pattern),
		LiteralString(n.WildCard),
		LiteralString(n.SingleChar),
		LiteralString(n.EscapeChar),
	}
}

// In tests a property against a list of values.
type In struct {
	Property *PropertyName
	Values   []Expression
}

// NewIn creates an In node. The property name may be empty only while
// the tree is being assembled; rendering an In without a property fails.
func NewIn(property string, values ...Expression) *In {
	checkArgs("IN", values)
	return &In{Property: Property(property), Values: values}
}

func (n *In) Accept(v Visitor) (string, error) { return v.VisitIn(n) }

func (n *In) Clone() Expression {
	return &In{Property: &PropertyName{Name: n.Property.Name}, Values: cloneExprs(n.Values)}
}

// Add appends a value.
func (n *In) Add(val Expression) {
	checkArgs("IN", []Expression{val})
	n.Values = append(n.Values, val)
}
