// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathspec

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/bureau-foundation/strata/lib/fserr"
)

// Tag names a backend type ("OS", "AGE", "SQLITE_BLOB").
type Tag string

// ParentRule says whether nodes of a type wrap a parent layer.
type ParentRule uint8

const (
	ParentOptional ParentRule = iota
	ParentRequired
	ParentForbidden
)

// FieldKind is the value type of an identity field.
type FieldKind uint8

const (
	FieldString FieldKind = iota + 1
	FieldInt
)

// FieldSpec declares an identity field of a Type.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Attributes are the raw attribute values a node is built from. Keys
// are identity field names or one of the address attribute names.
type Attributes map[string]any

// Constructor builds a node of one type on top of parent. [Type.New]
// is the constructor every backend registers.
type Constructor func(attributes Attributes, parent *PathSpec) (*PathSpec, error)

// Type describes the nodes of one backend.
type Type struct {
	Tag       Tag
	Parent    ParentRule
	Fields    []FieldSpec
	Addresses AddressKinds
}

// New validates attributes against the type and returns a node whose
// parent is parent. Parent rule violations are structural errors;
// every attribute problem is an argument error.
func (t *Type) New(attributes Attributes, parent *PathSpec) (*PathSpec, error) {
	switch t.Parent {
	case ParentForbidden:
		if parent != nil {
			return nil, fserr.Structuralf("%s path spec cannot have a parent (got %s)", t.Tag, parent.Tag())
		}
	case ParentRequired:
		if parent == nil {
			return nil, fserr.Structuralf("%s path spec requires a parent", t.Tag)
		}
	}

	spec := &PathSpec{tag: t.Tag, parent: parent}
	addressName := ""

	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := attributes[name]
		if value == nil {
			continue
		}

		address, isAddress, err := t.parseAddress(name, value)
		if err != nil {
			return nil, err
		}
		if isAddress {
			if addressName != "" {
				return nil, fserr.Argumentf("%s path spec has both %s and %s; at most one address is allowed", t.Tag, addressName, name)
			}
			addressName = name
			spec.address = address
			continue
		}

		declaration, ok := t.field(name)
		if !ok {
			return nil, fserr.Argumentf("%s path spec has no attribute %q", t.Tag, name)
		}
		normalized, err := normalizeField(declaration.Kind, value)
		if err != nil {
			return nil, fserr.Argumentf("%s path spec attribute %s: %w", t.Tag, name, err)
		}
		spec.fields = append(spec.fields, field{name: name, value: normalized})
	}

	for _, declaration := range t.Fields {
		if !declaration.Required {
			continue
		}
		if _, ok := spec.Field(declaration.Name); !ok {
			return nil, fserr.Argumentf("%s path spec requires attribute %s", t.Tag, declaration.Name)
		}
	}

	return spec, nil
}

// parseAddress recognizes the three address attributes. It returns
// isAddress=false for every other name.
func (t *Type) parseAddress(name string, value any) (Address, bool, error) {
	var required AddressKinds
	switch name {
	case AttrLocation:
		required = AcceptsLocation
	case AttrRowIndex:
		required = AcceptsRowIndex
	case AttrRowCondition:
		required = AcceptsRowCondition
	default:
		return nil, false, nil
	}
	if t.Addresses&required == 0 {
		return nil, true, fserr.Argumentf("%s path spec does not accept %s", t.Tag, name)
	}

	switch name {
	case AttrLocation:
		location, ok := value.(string)
		if !ok {
			if typed, isLocation := value.(Location); isLocation {
				location, ok = string(typed), true
			}
		}
		if !ok || location == "" {
			return nil, true, fserr.Argumentf("%s path spec location must be a non-empty string, got %#v", t.Tag, value)
		}
		return Location(location), true, nil

	case AttrRowIndex:
		if typed, ok := value.(RowIndex); ok {
			value = int64(typed)
		}
		index, err := normalizeInt(value)
		if err != nil {
			return nil, true, fserr.Argumentf("%s path spec row_index: %w", t.Tag, err)
		}
		if index < 0 {
			return nil, true, fserr.Argumentf("%s path spec row_index must not be negative, got %d", t.Tag, index)
		}
		return RowIndex(index), true, nil

	default:
		condition, err := parseRowCondition(value)
		if err != nil {
			return nil, true, fserr.Argumentf("%s path spec row_condition: %w", t.Tag, err)
		}
		return condition, true, nil
	}
}

func (t *Type) field(name string) (FieldSpec, bool) {
	index := slices.IndexFunc(t.Fields, func(declaration FieldSpec) bool {
		return declaration.Name == name
	})
	if index < 0 {
		return FieldSpec{}, false
	}
	return t.Fields[index], true
}

func normalizeField(kind FieldKind, value any) (any, error) {
	switch kind {
	case FieldString:
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", value)
		}
		if text == "" {
			return nil, fmt.Errorf("empty string")
		}
		return text, nil
	case FieldInt:
		return normalizeInt(value)
	default:
		return nil, fmt.Errorf("field kind %d is not supported", kind)
	}
}

// normalizeInt converts every integer representation a decoder may
// produce to int64: Go integers, CBOR's uint64, JSON's float64 and
// json.Number. Non-integral or out-of-range values are rejected.
func normalizeInt(value any) (int64, error) {
	switch value := value.(type) {
	case int:
		return int64(value), nil
	case int8:
		return int64(value), nil
	case int16:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case int64:
		return value, nil
	case uint:
		return uintToInt(uint64(value))
	case uint8:
		return int64(value), nil
	case uint16:
		return int64(value), nil
	case uint32:
		return int64(value), nil
	case uint64:
		return uintToInt(value)
	case float64:
		if value != math.Trunc(value) || value < math.MinInt64 || value >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is not an integer", value)
		}
		return int64(value), nil
	case json.Number:
		if integer, err := value.Int64(); err == nil {
			return integer, nil
		}
		float, err := value.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", value)
		}
		return normalizeInt(float)
	default:
		return 0, fmt.Errorf("want integer, got %T", value)
	}
}

func uintToInt(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("%d overflows int64", value)
	}
	return int64(value), nil
}

// normalizeScalar canonicalizes a row condition value so that the
// same condition decoded from JSON, CBOR, or Go literals compares and
// hashes equal. Integral numbers become int64.
func normalizeScalar(value any) (any, error) {
	switch value := value.(type) {
	case string, bool:
		return value, nil
	case float32:
		return normalizeScalar(float64(value))
	case float64:
		if integer, err := normalizeInt(value); err == nil {
			return integer, nil
		}
		return value, nil
	case json.Number:
		if integer, err := value.Int64(); err == nil {
			return integer, nil
		}
		float, err := value.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s is not a number", value)
		}
		return normalizeScalar(float)
	default:
		integer, err := normalizeInt(value)
		if err != nil {
			return nil, fmt.Errorf("want string, number, or bool, got %T", value)
		}
		return integer, nil
	}
}
