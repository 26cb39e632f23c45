// Package querydoc reads declarative YAML query documents and builds the
// statement they describe. Predicates are written in the Filter Encoding
// vocabulary and translated by queryencoder.
package querydoc

import (
	"bytes"
	"fmt"
	"os"

	errors "gopkg.in/src-d/go-errors.v1"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned for documents that cannot be parsed or
// do not describe a valid statement.
var ErrInvalidDocument = errors.NewKind("invalid query document: %s")

// Document is a query document.
//
//	from: [{name: city, alias: c}]
//	joins:
//	  - {dataset: {name: state, alias: s}, type: inner, using: [uf]}
//	fields: [c.name, {function: ST_Area, args: [c.geom], alias: area}]
//	where:
//	  and:
//	    - equal_to: {property: c.uf, value: SP}
//	    - bbox: {property: c.geom, envelope: [-47, -24, -46, -23], srid: 4326}
//	order_by: [{property: c.name, order: desc}]
//	limit: 10
type Document struct {
	From       []DataSet  `yaml:"from"`
	Joins      []Join     `yaml:"joins,omitempty"`
	Fields     []Field    `yaml:"fields,omitempty"`
	Distinct   bool       `yaml:"distinct,omitempty"`
	Where      *Predicate `yaml:"where,omitempty"`
	IDs        []string   `yaml:"ids,omitempty"`
	IDProperty string     `yaml:"id_property,omitempty"`
	GroupBy    []string   `yaml:"group_by,omitempty"`
	Having     *Predicate `yaml:"having,omitempty"`
	OrderBy    []Order    `yaml:"order_by,omitempty"`
	Limit      uint64     `yaml:"limit,omitempty"`
	Offset     uint64     `yaml:"offset,omitempty"`
	Extent     *Extent    `yaml:"extent,omitempty"`
	Selection  *Selection `yaml:"selection,omitempty"`
	Insert     *Insert    `yaml:"insert,omitempty"`
}

// DataSet names a data set. It may be written as a bare name.
type DataSet struct {
	Name  string `yaml:"name"`
	Alias string `yaml:"alias,omitempty"`
}

func (d *DataSet) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d.Name = value.Value
		return nil
	}
	type plain DataSet
	return value.Decode((*plain)(d))
}

// Join joins a data set to the FROM list.
type Join struct {
	DataSet DataSet    `yaml:"dataset"`
	Type    string     `yaml:"type,omitempty"`
	On      *Predicate `yaml:"on,omitempty"`
	Using   []string   `yaml:"using,omitempty"`
	Natural bool       `yaml:"natural,omitempty"`
}

// Field is one projection. It may be written as a bare property name.
type Field struct {
	Property string   `yaml:"property,omitempty"`
	Function string   `yaml:"function,omitempty"`
	Args     []string `yaml:"args,omitempty"`
	Alias    string   `yaml:"alias,omitempty"`
}

func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		f.Property = value.Value
		return nil
	}
	type plain Field
	return value.Decode((*plain)(f))
}

// Order is one ORDER BY item. It may be written as a bare property name.
type Order struct {
	Property string `yaml:"property"`
	Order    string `yaml:"order,omitempty"`
}

func (o *Order) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		o.Property = value.Value
		return nil
	}
	type plain Order
	return value.Decode((*plain)(o))
}

// Extent configures the spatial window restriction.
type Extent struct {
	BBox     []float64 `yaml:"bbox"`
	SRID     int       `yaml:"srid,omitempty"`
	Column   string    `yaml:"column,omitempty"`
	DataSets []string  `yaml:"datasets,omitempty"`
}

// Selection restricts a data set to a list of object identities.
type Selection struct {
	DataSet    string             `yaml:"dataset,omitempty"`
	Properties []IdentityProperty `yaml:"properties"`
	IDs        [][]any            `yaml:"ids"`
}

// IdentityProperty is one identifying property of a Selection.
type IdentityProperty struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Insert turns the document into an INSERT ... SELECT.
type Insert struct {
	Into   DataSet  `yaml:"into"`
	Fields []string `yaml:"fields,omitempty"`
}

// Load reads the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query document: %w", err)
	}
	return Parse(data)
}

// Parse decodes a document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if ErrInvalidDocument.Is(err) {
			return nil, err
		}
		return nil, ErrInvalidDocument.Wrap(err, err.Error())
	}
	if len(doc.From) == 0 {
		return nil, ErrInvalidDocument.New("from is required")
	}
	return &doc, nil
}
