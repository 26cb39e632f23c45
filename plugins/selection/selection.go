// Package selection provides a Transformer that restricts a data set to
// a set of object identities, typically the rows a user picked on a map.
//
//	ids := objectid.NewSet()
//	_ = ids.AddProperty("fid", 0, objectid.Int64)
//	_ = ids.Add(objectid.New(7))
//	query := managers.NewSelectManager(nodes.DataSet("city"))
//	query.Use(selection.New("city", ids))
//	// SELECT * FROM city WHERE fid IN (7)
package selection

import (
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/objectid"
	"github.com/bawdo/geosql/plugins"
)

// Selection ANDs the restriction built by an objectid.Set onto every
// SELECT referencing its data set.
type Selection struct {
	plugins.BaseTransformer
	DataSet string
	IDs     *objectid.Set
}

// New creates a Selection restricting dataSet to ids. An empty dataSet
// selects the first data set of the query.
func New(dataSet string, ids *objectid.Set) *Selection {
	return &Selection{DataSet: dataSet, IDs: ids}
}

// Name implements plugins.Named.
func (s *Selection) Name() string { return "selection" }

// TransformSelect appends the identity restriction. It fails when the
// data set is not referenced or the set cannot produce a restriction.
func (s *Selection) TransformSelect(sel *nodes.Select) (*nodes.Select, error) {
	ref, ok := s.target(sel)
	if !ok {
		return nil, plugins.ErrUnknownDataSet.New(s.DataSet)
	}
	cond, err := s.IDs.Expression(ref.Ref)
	if err != nil {
		return nil, err
	}
	plugins.AddCondition(sel, cond)
	return sel, nil
}

func (s *Selection) target(sel *nodes.Select) (plugins.DataSetRef, bool) {
	if s.DataSet != "" {
		return plugins.FindDataSet(sel, s.DataSet)
	}
	refs := plugins.CollectDataSets(sel)
	if len(refs) == 0 {
		return plugins.DataSetRef{}, false
	}
	return refs[0], true
}
