// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathspec

import (
	"fmt"

	"github.com/bureau-foundation/strata/lib/codec"
	"github.com/bureau-foundation/strata/lib/fserr"
)

// Element is the external representation of one chain node. A chain
// serializes as []Element ordered outermost-first; only the first
// element has HasParent false.
type Element struct {
	Type       Tag            `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
	HasParent  bool           `json:"has_parent"`
}

// Elements returns the chain's external representation.
func (p *PathSpec) Elements() []Element {
	return p.elements(false)
}

func (p *PathSpec) elements(stripAddress bool) []Element {
	nodes := p.chain()
	elements := make([]Element, len(nodes))
	for index, node := range nodes {
		if stripAddress && node == p {
			node = node.WithoutAddress()
		}
		element := Element{Type: node.tag, HasParent: node.parent != nil}
		if attributes := node.Attributes(); len(attributes) > 0 {
			element.Attributes = attributes
		}
		elements[index] = element
	}
	return elements
}

// Lookup returns the constructor registered for a tag.
type Lookup func(tag Tag) (Constructor, error)

// FromElements rebuilds a chain from its external representation,
// constructing each node with the constructor lookup returns for its
// tag. It returns the innermost node.
func FromElements(elements []Element, lookup Lookup) (*PathSpec, error) {
	if len(elements) == 0 {
		return nil, fserr.Argumentf("empty chain")
	}

	var parent *PathSpec
	for index, element := range elements {
		if element.HasParent != (index > 0) {
			return nil, fserr.Structuralf("chain element %d (%s): has_parent=%t is inconsistent with its position", index, element.Type, element.HasParent)
		}
		construct, err := lookup(element.Type)
		if err != nil {
			return nil, fmt.Errorf("chain element %d: %w", index, err)
		}
		node, err := construct(Attributes(element.Attributes), parent)
		if err != nil {
			return nil, fmt.Errorf("chain element %d: %w", index, err)
		}
		parent = node
	}
	return parent, nil
}

// Marshal encodes the chain as deterministic CBOR.
func Marshal(spec *PathSpec) ([]byte, error) {
	return codec.Marshal(spec.Elements())
}

// Unmarshal decodes a chain produced by Marshal.
func Unmarshal(data []byte, lookup Lookup) (*PathSpec, error) {
	var elements []Element
	if err := codec.Unmarshal(data, &elements); err != nil {
		return nil, fserr.Argumentf("decoding chain: %w", err)
	}
	return FromElements(elements, lookup)
}
