package nodes

// SortOrder is the direction of an ORDER BY item.
type SortOrder int

const (
	Asc SortOrder = iota
	Desc
)

// String returns the SQL keyword for the sort order.
func (o SortOrder) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

// Field is one projection of a SELECT: an expression and an optional alias.
type Field struct {
	Expr  Expression
	Alias string
}

// NewField creates a Field. A nil expression panics.
func NewField(expr Expression, alias string) *Field {
	checkArgs("field", []Expression{expr})
	return &Field{Expr: expr, Alias: alias}
}

func (n *Field) Accept(v Visitor) (string, error) { return v.VisitField(n) }

func (n *Field) Clone() *Field { return &Field{Expr: n.Expr.Clone(), Alias: n.Alias} }

// OrderByItem is one ORDER BY entry.
type OrderByItem struct {
	Expr  Expression
	Order SortOrder
}

// NewOrderByItem creates an OrderByItem. A nil expression panics.
func NewOrderByItem(expr Expression, order SortOrder) *OrderByItem {
	checkArgs("order by", []Expression{expr})
	return &OrderByItem{Expr: expr, Order: order}
}

func (n *OrderByItem) Accept(v Visitor) (string, error) { return v.VisitOrderByItem(n) }

func (n *OrderByItem) Clone() *OrderByItem { return &OrderByItem{Expr: n.Expr.Clone(), Order: n.Order} }

// Distinct is the DISTINCT modifier of a Select. An empty list means a
// plain DISTINCT; a non-empty one is DISTINCT ON (exprs).
type Distinct []Expression

// Clone returns a deep copy, preserving the nil/empty distinction.
func (d Distinct) Clone() Distinct {
	if d == nil {
		return nil
	}
	return Distinct(cloneExprs(d))
}

// Select is a SELECT statement. Every clause is optional; absent clauses
// are not rendered. Limit and Offset are absent when zero.
type Select struct {
	Distinct Distinct // nil: no DISTINCT
	Fields   []*Field // empty renders as *
	From     []FromItem
	Where    Expression
	GroupBy  []Expression
	Having   Expression
	OrderBy  []*OrderByItem
	Limit    uint64
	Offset   uint64
}

// NewSelect creates a Select over the given fields.
func NewSelect(fields ...*Field) *Select {
	return &Select{Fields: fields}
}

func (n *Select) Accept(v Visitor) (string, error) { return v.VisitSelect(n) }

func (n *Select) query() {}

// Clone returns a deep copy of the statement.
func (n *Select) Clone() *Select {
	c := &Select{
		Distinct: n.Distinct.Clone(),
		GroupBy:  cloneExprs(n.GroupBy),
		Limit:    n.Limit,
		Offset:   n.Offset,
	}
	if n.Fields != nil {
		c.Fields = make([]*Field, len(n.Fields))
		for i, f := range n.Fields {
			c.Fields[i] = f.Clone()
		}
	}
	if n.From != nil {
		c.From = make([]FromItem, len(n.From))
		for i, f := range n.From {
			c.From[i] = f.Clone()
		}
	}
	if n.Where != nil {
		c.Where = n.Where.Clone()
	}
	if n.Having != nil {
		c.Having = n.Having.Clone()
	}
	if n.OrderBy != nil {
		c.OrderBy = make([]*OrderByItem, len(n.OrderBy))
		for i, o := range n.OrderBy {
			c.OrderBy[i] = o.Clone()
		}
	}
	return c
}

// SetWhere replaces the WHERE expression.
func (n *Select) SetWhere(e Expression) { n.Where = e }

// SetHaving replaces the HAVING expression.
func (n *Select) SetHaving(e Expression) { n.Having = e }

// SetFrom replaces the FROM list.
func (n *Select) SetFrom(items ...FromItem) { n.From = items }

// HasMultipleSources reports whether more than one data set is in scope:
// several FROM items or a join anywhere in the FROM list.
func (n *Select) HasMultipleSources() bool {
	if len(n.From) > 1 {
		return true
	}
	for _, f := range n.From {
		if _, ok := f.(*Join); ok {
			return true
		}
	}
	return false
}
