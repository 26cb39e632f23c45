package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/geosql/nodes"
)

// Color constants for DOT node categories.
const (
	colorDataSet  = "#6CA6CD" // blue: data sets, sub-selects, statements
	colorProperty = "#B0D4E8" // light blue: property names, fields
	colorFunction = "#FFB347" // orange: functions, predicates
	colorLiteral  = "#D3D3D3" // grey: literals
	colorSpatial  = "#98FB98" // mint green: geometries, envelopes
	colorJoin     = "#77DD77" // green: joins and conditions
	colorOrdering = "#CDA0E0" // purple: ordering
)

// dotNode represents a single node in the DOT graph.
type dotNode struct {
	id    string
	label string
	color string
}

// dotEdge represents a directed edge between two nodes in the DOT graph.
type dotEdge struct {
	from  string
	to    string
	label string
}

// cluster groups the nodes rendered for one marked subtree.
type cluster struct {
	name    string
	color   string
	nodeIDs []string
}

type provenanceEntry struct {
	name  string
	color string
}

// Provenance records which subtrees were contributed by a named source,
// typically a transformer. Marked subtrees are drawn inside a dashed
// cluster.
type Provenance struct {
	entries map[nodes.Node]provenanceEntry
}

// NewProvenance creates an empty Provenance.
func NewProvenance() *Provenance {
	return &Provenance{entries: make(map[nodes.Node]provenanceEntry)}
}

// Mark attributes the subtree rooted at n to name.
func (p *Provenance) Mark(n nodes.Node, name, color string) {
	p.entries[n] = provenanceEntry{name: name, color: color}
}

// Len returns the number of marked subtrees.
func (p *Provenance) Len() int {
	return len(p.entries)
}

func (p *Provenance) lookup(n nodes.Node) (provenanceEntry, bool) {
	if p == nil {
		return provenanceEntry{}, false
	}
	e, ok := p.entries[n]
	return e, ok
}

// DotVisitor walks a tree and produces Graphviz DOT output. The string
// each Visit method returns is the DOT id of the node it added; ToDot
// returns the graph.
type DotVisitor struct {
	nextID     int
	nodes      []dotNode
	edges      []dotEdge
	clusters   []cluster
	parentID   string
	edgeLabel  string
	provenance *Provenance
}

var _ nodes.Visitor = (*DotVisitor)(nil)

// NewDotVisitor creates a new DotVisitor ready to walk a tree.
func NewDotVisitor() *DotVisitor {
	return &DotVisitor{}
}

// SetProvenance configures which subtrees are drawn as clusters.
func (dv *DotVisitor) SetProvenance(p *Provenance) {
	dv.provenance = p
}

func (dv *DotVisitor) addNode(label, color string) string {
	id := fmt.Sprintf("n%d", dv.nextID)
	dv.nextID++
	dv.nodes = append(dv.nodes, dotNode{id: id, label: label, color: color})
	return id
}

func (dv *DotVisitor) addEdge(from, to, label string) {
	dv.edges = append(dv.edges, dotEdge{from: from, to: to, label: label})
}

// visitChild visits child with parentID and label as its incoming edge.
func (dv *DotVisitor) visitChild(parentID, label string, child nodes.Node) {
	if child == nil {
		return
	}
	savedParent, savedLabel := dv.parentID, dv.edgeLabel
	dv.parentID, dv.edgeLabel = parentID, label
	start := len(dv.nodes)
	_, _ = child.Accept(dv)
	if e, ok := dv.provenance.lookup(child); ok {
		ids := make([]string, 0, len(dv.nodes)-start)
		for _, n := range dv.nodes[start:] {
			ids = append(ids, n.id)
		}
		dv.clusters = append(dv.clusters, cluster{name: e.name, color: e.color, nodeIDs: ids})
	}
	dv.parentID, dv.edgeLabel = savedParent, savedLabel
}

func (dv *DotVisitor) visitChildList(parentID, prefix string, items []nodes.Expression) {
	for i, item := range items {
		dv.visitChild(parentID, fmt.Sprintf("%s[%d]", prefix, i), item)
	}
}

// leaf adds a node and connects it to the current parent.
func (dv *DotVisitor) leaf(label, color string) string {
	id := dv.addNode(label, color)
	if dv.parentID != "" {
		dv.addEdge(dv.parentID, id, dv.edgeLabel)
	}
	return id
}

// ToDot generates the complete DOT graph text.
func (dv *DotVisitor) ToDot() string {
	var sb strings.Builder

	sb.WriteString("digraph AST {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")

	clustered := make(map[string]bool)
	for _, c := range dv.clusters {
		for _, id := range c.nodeIDs {
			clustered[id] = true
		}
	}
	byID := make(map[string]dotNode, len(dv.nodes))
	for _, n := range dv.nodes {
		byID[n.id] = n
		if !clustered[n.id] {
			fmt.Fprintf(&sb, "  %s [label=\"%s\", fillcolor=\"%s\"];\n", n.id, escapeLabel(n.label), n.color)
		}
	}

	for i, c := range dv.clusters {
		fmt.Fprintf(&sb, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&sb, "    label=\"%s\";\n", escapeLabel(c.name))
		sb.WriteString("    style=dashed;\n")
		fmt.Fprintf(&sb, "    color=\"%s\";\n", c.color)
		for _, id := range c.nodeIDs {
			n := byID[id]
			fmt.Fprintf(&sb, "    %s [label=\"%s\", fillcolor=\"%s\"];\n", n.id, escapeLabel(n.label), n.color)
		}
		sb.WriteString("  }\n")
	}

	for _, e := range dv.edges {
		if e.label != "" {
			fmt.Fprintf(&sb, "  %s -> %s [label=\"%s\"];\n", e.from, e.to, escapeLabel(e.label))
		} else {
			fmt.Fprintf(&sb, "  %s -> %s;\n", e.from, e.to)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// escapeLabel escapes double quotes in DOT labels.
// Backslash sequences like \n are intentional DOT line breaks and are preserved.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func (dv *DotVisitor) VisitLiteral(n *nodes.LiteralNode) (string, error) {
	label := fmt.Sprintf("Literal\\n%v", n.Value)
	if s, ok := n.Value.(string); ok {
		label = "Literal\\n'" + s + "'"
	}
	return dv.leaf(label, colorLiteral), nil
}

func (dv *DotVisitor) VisitLiteralByteArray(n *nodes.LiteralByteArray) (string, error) {
	return dv.leaf(fmt.Sprintf("ByteArray\\n%d bytes", len(n.Value)), colorLiteral), nil
}

func (dv *DotVisitor) VisitLiteralDateTime(n *nodes.LiteralDateTime) (string, error) {
	return dv.leaf("DateTime\\n"+n.Value.Format(dateTimeLayout), colorLiteral), nil
}

func (dv *DotVisitor) VisitLiteralGeometry(n *nodes.LiteralGeometry) (string, error) {
	return dv.leaf(fmt.Sprintf("Geometry\\n%s SRID %d", n.Geometry.GeoJSONType(), n.SRID), colorSpatial), nil
}

func (dv *DotVisitor) VisitLiteralEnvelope(n *nodes.LiteralEnvelope) (string, error) {
	return dv.leaf(fmt.Sprintf("Envelope\\n%s SRID %d", cornerList(n), n.SRID), colorSpatial), nil
}

func (dv *DotVisitor) VisitPropertyName(n *nodes.PropertyName) (string, error) {
	return dv.leaf("Property\\n"+n.Name, colorProperty), nil
}

func (dv *DotVisitor) VisitFunction(n *nodes.Function) (string, error) {
	id := dv.leaf("Function\\n"+n.Name, colorFunction)
	dv.visitChildList(id, "ARG", n.Args)
	return id, nil
}

func (dv *DotVisitor) VisitBinaryFunction(n *nodes.BinaryFunction) (string, error) {
	id := dv.leaf(n.Name, colorFunction)
	dv.visitChild(id, "FIRST", n.First)
	dv.visitChild(id, "SECOND", n.Second)
	return id, nil
}

func (dv *DotVisitor) VisitUnaryFunction(n *nodes.UnaryFunction) (string, error) {
	id := dv.leaf(n.Name, colorFunction)
	dv.visitChild(id, "ARG", n.Arg)
	return id, nil
}

func (dv *DotVisitor) VisitLike(n *nodes.Like) (string, error) {
	id := dv.leaf("Like\\n"+n.Pattern, colorFunction)
	dv.visitChild(id, "EXPR", n.Expr)
	return id, nil
}

func (dv *DotVisitor) VisitIn(n *nodes.In) (string, error) {
	id := dv.leaf("In", colorFunction)
	dv.visitChild(id, "PROPERTY", n.Property)
	dv.visitChildList(id, "VALUE", n.Values)
	return id, nil
}

func (dv *DotVisitor) VisitSelect(n *nodes.Select) (string, error) {
	id := dv.leaf("Select", colorDataSet)
	if n.Distinct != nil {
		did := dv.addNode("Distinct", colorFunction)
		dv.addEdge(id, did, "DISTINCT")
		dv.visitChildList(did, "ON", n.Distinct)
	}
	for i, f := range n.Fields {
		dv.visitChild(id, fmt.Sprintf("FIELD[%d]", i), f)
	}
	for i, f := range n.From {
		dv.visitChild(id, fmt.Sprintf("FROM[%d]", i), f)
	}
	if n.Where != nil {
		dv.visitChild(id, "WHERE", n.Where)
	}
	dv.visitChildList(id, "GROUP", n.GroupBy)
	if n.Having != nil {
		dv.visitChild(id, "HAVING", n.Having)
	}
	for i, o := range n.OrderBy {
		dv.visitChild(id, fmt.Sprintf("ORDER[%d]", i), o)
	}
	if n.Limit > 0 {
		dv.addEdge(id, dv.addNode(fmt.Sprintf("%d", n.Limit), colorLiteral), "LIMIT")
	}
	if n.Offset > 0 {
		dv.addEdge(id, dv.addNode(fmt.Sprintf("%d", n.Offset), colorLiteral), "OFFSET")
	}
	return id, nil
}

func (dv *DotVisitor) VisitInsert(n *nodes.Insert) (string, error) {
	id := dv.leaf("Insert", colorDataSet)
	dv.visitChild(id, "INTO", n.Into)
	for i, f := range n.Fields {
		dv.visitChild(id, fmt.Sprintf("FIELD[%d]", i), f)
	}
	if n.Select != nil {
		dv.visitChild(id, "SELECT", n.Select)
	}
	for i, row := range n.Values {
		dv.visitChildList(id, fmt.Sprintf("ROW[%d]", i), row)
	}
	return id, nil
}

func (dv *DotVisitor) VisitDataSetName(n *nodes.DataSetName) (string, error) {
	label := "DataSet\\n" + n.Name
	if n.Alias != "" {
		label += " AS " + n.Alias
	}
	return dv.leaf(label, colorDataSet), nil
}

func (dv *DotVisitor) VisitSubSelect(n *nodes.SubSelect) (string, error) {
	id := dv.leaf("SubSelect\\n"+n.Alias, colorDataSet)
	dv.visitChild(id, "SELECT", n.Select)
	return id, nil
}

func (dv *DotVisitor) VisitJoin(n *nodes.Join) (string, error) {
	label := n.Type.String()
	if n.Natural && n.Type != nodes.NaturalJoin {
		label = "NATURAL " + label
	}
	id := dv.leaf("Join\\n"+label, colorJoin)
	dv.visitChild(id, "FIRST", n.First)
	dv.visitChild(id, "SECOND", n.Second)
	if n.Condition != nil {
		dv.visitChild(id, "CONDITION", n.Condition)
	}
	return id, nil
}

func (dv *DotVisitor) VisitJoinOn(n *nodes.JoinOn) (string, error) {
	id := dv.leaf("On", colorJoin)
	dv.visitChild(id, "EXPR", n.Expr)
	return id, nil
}

func (dv *DotVisitor) VisitJoinUsing(n *nodes.JoinUsing) (string, error) {
	id := dv.leaf("Using", colorJoin)
	dv.visitChildList(id, "FIELD", n.Fields)
	return id, nil
}

func (dv *DotVisitor) VisitField(n *nodes.Field) (string, error) {
	label := "Field"
	if n.Alias != "" {
		label += "\\nAS " + n.Alias
	}
	id := dv.leaf(label, colorProperty)
	dv.visitChild(id, "EXPR", n.Expr)
	return id, nil
}

func (dv *DotVisitor) VisitOrderByItem(n *nodes.OrderByItem) (string, error) {
	id := dv.leaf("Order\\n"+n.Order.String(), colorOrdering)
	dv.visitChild(id, "EXPR", n.Expr)
	return id, nil
}
