package nodes

// Insert is an INSERT INTO statement. Rows come either from Select or from
// Values; setting both is a precondition violation caught at render time.
type Insert struct {
	Into   *DataSetName
	Fields []*PropertyName
	Select *Select
	Values [][]Expression
}

// NewInsert creates an Insert into the named data set.
func NewInsert(into *DataSetName) *Insert {
	if into == nil {
		precondition("insert target must not be nil")
	}
	return &Insert{Into: into}
}

func (n *Insert) Accept(v Visitor) (string, error) { return v.VisitInsert(n) }

func (n *Insert) query() {}

// Clone returns a deep copy of the statement.
func (n *Insert) Clone() *Insert {
	c := &Insert{Into: &DataSetName{Name: n.Into.Name, Alias: n.Into.Alias}}
	if n.Fields != nil {
		c.Fields = make([]*PropertyName, len(n.Fields))
		for i, f := range n.Fields {
			c.Fields[i] = &PropertyName{Name: f.Name}
		}
	}
	if n.Select != nil {
		c.Select = n.Select.Clone()
	}
	if n.Values != nil {
		c.Values = make([][]Expression, len(n.Values))
		for i, row := range n.Values {
			c.Values[i] = cloneExprs(row)
		}
	}
	return c
}

// SetSelect replaces the sub-select supplying the rows.
func (n *Insert) SetSelect(sel *Select) { n.Select = sel }
