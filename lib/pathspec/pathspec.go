// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathspec

import (
	"fmt"
	"strings"
)

// field is one identity field value: a string or an int64.
type field struct {
	name  string
	value any
}

// PathSpec is one node of an addressing chain. It is immutable; the
// only way to obtain one is [Type.New] or [FromElements], so a node
// can never reference a parent built after it.
type PathSpec struct {
	tag     Tag
	fields  []field // sorted by name
	address Address
	parent  *PathSpec
}

// Tag returns the node's backend type tag.
func (p *PathSpec) Tag() Tag { return p.tag }

// HasParent reports whether the node wraps a parent layer.
func (p *PathSpec) HasParent() bool { return p.parent != nil }

// Parent returns the parent node, or nil for the outermost node.
func (p *PathSpec) Parent() *PathSpec { return p.parent }

// Address returns the node's address, or nil when it addresses the
// backend root.
func (p *PathSpec) Address() Address { return p.address }

// Location returns the node's Location address, or "" when the node
// has a different address or none.
func (p *PathSpec) Location() string {
	location, _ := p.address.(Location)
	return string(location)
}

// Field returns the value of an identity field.
func (p *PathSpec) Field(name string) (any, bool) {
	for _, entry := range p.fields {
		if entry.name == name {
			return entry.value, true
		}
	}
	return nil, false
}

// StringField returns a string identity field, or "" if absent.
func (p *PathSpec) StringField(name string) string {
	value, _ := p.Field(name)
	text, _ := value.(string)
	return text
}

// IntField returns an integer identity field.
func (p *PathSpec) IntField(name string) (int64, bool) {
	value, ok := p.Field(name)
	if !ok {
		return 0, false
	}
	integer, ok := value.(int64)
	return integer, ok
}

// Attributes returns a copy of the node's attributes in the form
// [Type.New] accepts.
func (p *PathSpec) Attributes() Attributes {
	attributes := make(Attributes, len(p.fields)+1)
	for _, entry := range p.fields {
		attributes[entry.name] = entry.value
	}
	if p.address != nil {
		name, value := addressAttribute(p.address)
		attributes[name] = value
	}
	return attributes
}

// WithoutAddress returns the node with its address removed. A
// filesystem uses it as the spec of its synthesized root entry.
func (p *PathSpec) WithoutAddress() *PathSpec {
	if p.address == nil {
		return p
	}
	return &PathSpec{tag: p.tag, fields: p.fields, parent: p.parent}
}

// WithAddress returns a sibling node addressing different content in
// the same backend instance. Backends use it to derive the specs of
// entries they enumerate.
func (p *PathSpec) WithAddress(address Address) *PathSpec {
	return &PathSpec{tag: p.tag, fields: p.fields, address: address, parent: p.parent}
}

// Equal reports whether two chains have the same tag, fields, and
// address at every node.
func (p *PathSpec) Equal(other *PathSpec) bool {
	for p != nil && other != nil {
		if p == other {
			return true
		}
		if p.tag != other.tag || !addressEqual(p.address, other.address) || len(p.fields) != len(other.fields) {
			return false
		}
		for index, entry := range p.fields {
			if entry.name != other.fields[index].name || entry.value != other.fields[index].value {
				return false
			}
		}
		p, other = p.parent, other.parent
	}
	return p == nil && other == nil
}

// Depth returns the number of nodes in the chain.
func (p *PathSpec) Depth() int {
	depth := 0
	for node := p; node != nil; node = node.parent {
		depth++
	}
	return depth
}

// String renders the chain outermost-first on one line, for logs:
//
//	OS{location=/vault.age} > AGE > SQLITE_BLOB{column_name=data, table_name=blobs, row_index=3}
func (p *PathSpec) String() string {
	if p == nil {
		return "<nil>"
	}
	var builder strings.Builder
	for index, node := range p.chain() {
		if index > 0 {
			builder.WriteString(" > ")
		}
		builder.WriteString(string(node.tag))
		if len(node.fields) == 0 && node.address == nil {
			continue
		}
		builder.WriteByte('{')
		for fieldIndex, entry := range node.fields {
			if fieldIndex > 0 {
				builder.WriteString(", ")
			}
			fmt.Fprintf(&builder, "%s=%v", entry.name, entry.value)
		}
		if node.address != nil {
			if len(node.fields) > 0 {
				builder.WriteString(", ")
			}
			name, _ := addressAttribute(node.address)
			fmt.Fprintf(&builder, "%s=%s", name, addressText(node.address))
		}
		builder.WriteByte('}')
	}
	return builder.String()
}

func addressText(address Address) string {
	switch address := address.(type) {
	case RowIndex:
		return fmt.Sprintf("%d", int64(address))
	case RowCondition:
		return fmt.Sprintf("[%s %s %v]", address.Column, address.Operator, address.Value)
	default:
		return address.String()
	}
}

// chain returns the nodes outermost-first.
func (p *PathSpec) chain() []*PathSpec {
	nodes := make([]*PathSpec, p.Depth())
	index := len(nodes) - 1
	for node := p; node != nil; node = node.parent {
		nodes[index] = node
		index--
	}
	return nodes
}
