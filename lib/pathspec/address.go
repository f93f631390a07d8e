// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathspec

import (
	"fmt"
	"strings"
)

// Attribute names reserved for addresses. Identity fields use any
// other name.
const (
	AttrLocation     = "location"
	AttrRowIndex     = "row_index"
	AttrRowCondition = "row_condition"
)

// Address selects content inside an open backend. The concrete types
// are [Location], [RowIndex], and [RowCondition]; a nil Address
// addresses the backend's root.
type Address interface {
	String() string
	isAddress()
}

// Location is a slash-separated path inside a hierarchical backend.
type Location string

func (Location) isAddress() {}

func (l Location) String() string { return string(l) }

// RowIndex selects a row by zero-based position.
type RowIndex int64

func (RowIndex) isAddress() {}

func (r RowIndex) String() string { return fmt.Sprintf("OFFSET %d", int64(r)) }

// RowCondition selects the first row for which Column Operator Value
// holds. Value is a string, int64, float64, or bool.
type RowCondition struct {
	Column   string
	Operator string
	Value    any
}

func (RowCondition) isAddress() {}

func (c RowCondition) String() string {
	if text, ok := c.Value.(string); ok {
		return fmt.Sprintf("WHERE %s %s %q", c.Column, c.Operator, text)
	}
	return fmt.Sprintf("WHERE %s %s %v", c.Column, c.Operator, c.Value)
}

// AddressKinds is the set of address variants a [Type] accepts.
type AddressKinds uint8

const (
	AcceptsLocation AddressKinds = 1 << iota
	AcceptsRowIndex
	AcceptsRowCondition
)

// conditionOperators are the comparison operators a RowCondition may
// use. Keys are upper-cased for lookup.
var conditionOperators = map[string]bool{
	"==": true, "=": true, "!=": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true,
}

// addressAttribute returns the attribute name and encoded value for
// an address. Row conditions encode as [column, operator, value].
func addressAttribute(address Address) (string, any) {
	switch address := address.(type) {
	case Location:
		return AttrLocation, string(address)
	case RowIndex:
		return AttrRowIndex, int64(address)
	case RowCondition:
		return AttrRowCondition, []any{address.Column, address.Operator, address.Value}
	default:
		panic(fmt.Sprintf("pathspec: unknown address type %T", address))
	}
}

func addressEqual(a, b Address) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case Location:
		other, ok := b.(Location)
		return ok && a == other
	case RowIndex:
		other, ok := b.(RowIndex)
		return ok && a == other
	case RowCondition:
		other, ok := b.(RowCondition)
		return ok && a.Column == other.Column && a.Operator == other.Operator && a.Value == other.Value
	default:
		return false
	}
}

// parseRowCondition accepts either a RowCondition or the encoded
// [column, operator, value] form.
func parseRowCondition(value any) (RowCondition, error) {
	var condition RowCondition
	switch value := value.(type) {
	case RowCondition:
		condition = value
	case []any:
		if len(value) != 3 {
			return RowCondition{}, fmt.Errorf("want [column, operator, value], got %d elements", len(value))
		}
		column, ok := value[0].(string)
		if !ok {
			return RowCondition{}, fmt.Errorf("column must be a string, got %T", value[0])
		}
		operator, ok := value[1].(string)
		if !ok {
			return RowCondition{}, fmt.Errorf("operator must be a string, got %T", value[1])
		}
		condition = RowCondition{Column: column, Operator: operator, Value: value[2]}
	default:
		return RowCondition{}, fmt.Errorf("want [column, operator, value], got %T", value)
	}

	if condition.Column == "" {
		return RowCondition{}, fmt.Errorf("empty column name")
	}
	condition.Operator = strings.ToUpper(strings.TrimSpace(condition.Operator))
	if !conditionOperators[condition.Operator] {
		return RowCondition{}, fmt.Errorf("unsupported operator %q", condition.Operator)
	}

	scalar, err := normalizeScalar(condition.Value)
	if err != nil {
		return RowCondition{}, fmt.Errorf("value: %w", err)
	}
	condition.Value = scalar
	return condition, nil
}
