package managers

import (
	"fmt"

	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/plugins"
	"github.com/bawdo/geosql/visitors"
)

// treeManager holds the transformer pipeline shared by the Select and
// Insert managers.
type treeManager struct {
	transformers []plugins.Transformer
}

func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return tm.transformers
}

// render clears the parameters of v, renders through fn and returns the
// parameters bound along the way.
func render(v nodes.Visitor, fn func(nodes.Visitor) (string, error)) (string, []any, error) {
	p, bound := v.(nodes.Parameterizer)
	if bound {
		p.Reset()
	}
	sql, err := fn(v)
	if err != nil {
		return "", nil, err
	}
	if !bound {
		return sql, nil, nil
	}
	return sql, p.Params(), nil
}

var provenanceColors = []string{"#E8A0A0", "#A0C4E8", "#C8E8A0", "#E8D8A0"}

// markAdded records in prov the conditions the i-th transformer t ANDed
// onto before. A nil prov records nothing.
func markAdded(prov *visitors.Provenance, i int, t plugins.Transformer, before, after nodes.Expression) {
	if prov == nil {
		return
	}
	label := fmt.Sprintf("%T", t)
	if n, ok := t.(plugins.Named); ok {
		label = n.Name()
	}
	for _, added := range addedConjuncts(before, after) {
		prov.Mark(added, label, provenanceColors[i%len(provenanceColors)])
	}
}

// addedConjuncts returns the conditions ANDed onto before to produce
// after, or nil when after is not such an extension of before.
func addedConjuncts(before, after nodes.Expression) []nodes.Expression {
	var added []nodes.Expression
	cur := after
	for cur != nil && cur != before {
		and, ok := cur.(*nodes.BinaryFunction)
		if !ok || and.Name != nodes.FuncAnd {
			if before != nil {
				return nil
			}
			added = append(added, cur)
			break
		}
		added = append(added, and.Second)
		cur = and.First
	}
	if before != nil && cur != before {
		return nil
	}
	return added
}
