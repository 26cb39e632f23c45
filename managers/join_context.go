package managers

import "github.com/bawdo/geosql/nodes"

// JoinContext holds a join added by SelectManager.Join until its
// condition is given.
type JoinContext struct {
	manager *SelectManager
	join    *nodes.Join
}

// On joins where cond holds.
func (jc *JoinContext) On(cond nodes.Expression) *SelectManager {
	jc.join.Condition = nodes.On(cond)
	return jc.manager
}

// Using joins on columns present in both data sets.
func (jc *JoinContext) Using(columns ...string) *SelectManager {
	jc.join.Condition = nodes.Using(columns...)
	return jc.manager
}

// Natural turns the join into a NATURAL join, which takes no condition.
func (jc *JoinContext) Natural() *SelectManager {
	jc.join.Natural = true
	jc.join.Condition = nil
	return jc.manager
}
