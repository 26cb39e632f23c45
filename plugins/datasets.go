package plugins

import "github.com/bawdo/geosql/nodes"

// DataSetRef is a data set referenced by a statement. Ref is the name
// properties are qualified with (the alias when there is one) and Name
// the underlying data set name, used for matching.
type DataSetRef struct {
	DataSet *nodes.DataSetName
	Ref     string
	Name    string
}

// Col returns a property of the data set qualified with its reference
// name.
func (r DataSetRef) Col(name string) *nodes.PropertyName {
	return r.DataSet.Col(name)
}

// CollectDataSets returns the data sets named in the FROM list of sel,
// walking joins left to right. Sub-selects are skipped.
func CollectDataSets(sel *nodes.Select) []DataSetRef {
	var refs []DataSetRef
	for _, item := range sel.From {
		refs = collectFrom(item, refs)
	}
	return refs
}

func collectFrom(item nodes.FromItem, refs []DataSetRef) []DataSetRef {
	switch n := item.(type) {
	case *nodes.DataSetName:
		return append(refs, DataSetRef{DataSet: n, Ref: n.RefName(), Name: n.Name})
	case *nodes.Join:
		refs = collectFrom(n.First, refs)
		return collectFrom(n.Second, refs)
	}
	return refs
}

// FindDataSet returns the first referenced data set whose name or alias
// is name.
func FindDataSet(sel *nodes.Select, name string) (DataSetRef, bool) {
	for _, ref := range CollectDataSets(sel) {
		if ref.Name == name || ref.Ref == name {
			return ref, true
		}
	}
	return DataSetRef{}, false
}
