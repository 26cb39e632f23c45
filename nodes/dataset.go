package nodes

// DataSetName names a table, view or any other data set, with an optional
// alias.
type DataSetName struct {
	Name  string
	Alias string
}

// DataSet creates a DataSetName. An empty name panics.
func DataSet(name string) *DataSetName {
	if name == "" {
		precondition("data set name must not be empty")
	}
	return &DataSetName{Name: name}
}

// As returns the data set with an alias set.
func (n *DataSetName) As(alias string) *DataSetName {
	n.Alias = alias
	return n
}

// Col creates a PropertyName qualified by the alias, or by the name when
// no alias is set.
func (n *DataSetName) Col(name string) *PropertyName {
	return Property(n.RefName() + "." + name)
}

// RefName is the name used to qualify columns of this data set.
func (n *DataSetName) RefName() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

func (n *DataSetName) Accept(v Visitor) (string, error) { return v.VisitDataSetName(n) }

func (n *DataSetName) Clone() FromItem { return &DataSetName{Name: n.Name, Alias: n.Alias} }

// SubSelect uses a Select as a from-item. The alias is required by most
// backends.
type SubSelect struct {
	Select *Select
	Alias  string
}

// NewSubSelect creates a SubSelect. A nil select panics.
func NewSubSelect(sel *Select, alias string) *SubSelect {
	if sel == nil {
		precondition("sub-select must not be nil")
	}
	return &SubSelect{Select: sel, Alias: alias}
}

func (n *SubSelect) Accept(v Visitor) (string, error) { return v.VisitSubSelect(n) }

func (n *SubSelect) Clone() FromItem { return &SubSelect{Select: n.Select.Clone(), Alias: n.Alias} }
