package nodes

// JoinType represents the type of SQL JOIN.
type JoinType int

const (
	PlainJoin JoinType = iota
	InnerJoin
	LeftJoin
	RightJoin
	FullOuterJoin
	CrossJoin
	NaturalJoin
)

// String returns the SQL keyword for this join type.
func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "INNER JOIN"
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullOuterJoin:
		return "FULL OUTER JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	case NaturalJoin:
		return "NATURAL JOIN"
	default:
		return "JOIN"
	}
}

// Join combines two from-items. Chained joins nest: the First of an outer
// Join is usually another Join.
type Join struct {
	First     FromItem
	Second    FromItem
	Type      JoinType
	Condition JoinCondition // nil for CROSS and NATURAL joins
	Natural   bool
}

// NewJoin creates a Join. Nil operands panic.
func NewJoin(first, second FromItem, typ JoinType, cond JoinCondition) *Join {
	if first == nil || second == nil {
		precondition("join operands must not be nil")
	}
	return &Join{First: first, Second: second, Type: typ, Condition: cond}
}

func (n *Join) Accept(v Visitor) (string, error) { return v.VisitJoin(n) }

func (n *Join) Clone() FromItem {
	c := &Join{
		First:   n.First.Clone(),
		Second:  n.Second.Clone(),
		Type:    n.Type,
		Natural: n.Natural,
	}
	if n.Condition != nil {
		c.Condition = n.Condition.Clone()
	}
	return c
}

// JoinOn is an ON (expr) join condition.
type JoinOn struct {
	Expr Expression
}

// On creates a JoinOn condition. A nil expression panics.
func On(expr Expression) *JoinOn {
	checkArgs("ON", []Expression{expr})
	return &JoinOn{Expr: expr}
}

func (n *JoinOn) Accept(v Visitor) (string, error) { return v.VisitJoinOn(n) }

func (n *JoinOn) Clone() JoinCondition { return &JoinOn{Expr: n.Expr.Clone()} }

// JoinUsing is a USING (cols) join condition.
type JoinUsing struct {
	Fields []Expression
}

// Using creates a JoinUsing condition over the named columns.
func Using(names ...string) *JoinUsing {
	fields := make([]Expression, len(names))
	for i, name := range names {
		fields[i] = Property(name)
	}
	return &JoinUsing{Fields: fields}
}

func (n *JoinUsing) Accept(v Visitor) (string, error) { return v.VisitJoinUsing(n) }

func (n *JoinUsing) Clone() JoinCondition { return &JoinUsing{Fields: cloneExprs(n.Fields)} }
