// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathspec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/bureau-foundation/strata/lib/fserr"
)

var (
	testFileType = &Type{Tag: "OS", Parent: ParentForbidden, Addresses: AcceptsLocation}
	testAgeType  = &Type{Tag: "AGE", Parent: ParentRequired}
	testBlobType = &Type{
		Tag:    "SQLITE_BLOB",
		Parent: ParentRequired,
		Fields: []FieldSpec{
			{Name: "table_name", Kind: FieldString, Required: true},
			{Name: "column_name", Kind: FieldString, Required: true},
		},
		Addresses: AcceptsRowIndex | AcceptsRowCondition,
	}
	testRangeType = &Type{
		Tag:    "DATA_RANGE",
		Parent: ParentRequired,
		Fields: []FieldSpec{
			{Name: "range_offset", Kind: FieldInt, Required: true},
			{Name: "range_size", Kind: FieldInt},
		},
	}
)

func testLookup(tag Tag) (Constructor, error) {
	for _, typ := range []*Type{testFileType, testAgeType, testBlobType, testRangeType} {
		if typ.Tag == tag {
			return typ.New, nil
		}
	}
	return nil, fserr.Structuralf("unknown type %s", tag)
}

func mustNew(t *testing.T, typ *Type, attributes Attributes, parent *PathSpec) *PathSpec {
	t.Helper()
	spec, err := typ.New(attributes, parent)
	if err != nil {
		t.Fatalf("%s.New(%v): %v", typ.Tag, attributes, err)
	}
	return spec
}

// buildRowChain builds OS > AGE > SQLITE_BLOB from scratch, so two
// calls produce independent but structurally identical chains.
func buildRowChain(t *testing.T, location string, rowIndex any) *PathSpec {
	t.Helper()
	file := mustNew(t, testFileType, Attributes{"location": location}, nil)
	volume := mustNew(t, testAgeType, nil, file)
	attributes := Attributes{"table_name": "blobs", "column_name": "data"}
	if rowIndex != nil {
		attributes["row_index"] = rowIndex
	}
	return mustNew(t, testBlobType, attributes, volume)
}

func TestParentRules(t *testing.T) {
	file := mustNew(t, testFileType, Attributes{"location": "/vault.age"}, nil)
	if file.HasParent() {
		t.Error("outermost node reports a parent")
	}

	_, err := testFileType.New(Attributes{"location": "/nested"}, file)
	if !fserr.Is(err, fserr.KindStructural) {
		t.Errorf("parent-forbidding type with parent: err = %v, want structural", err)
	}

	_, err = testAgeType.New(nil, nil)
	if !fserr.Is(err, fserr.KindStructural) {
		t.Errorf("parent-requiring type without parent: err = %v, want structural", err)
	}

	volume := mustNew(t, testAgeType, nil, file)
	if !volume.HasParent() || volume.Parent() != file {
		t.Error("volume does not reference its parent")
	}
}

func TestAttributeValidation(t *testing.T) {
	file := mustNew(t, testFileType, Attributes{"location": "/db"}, nil)

	tests := []struct {
		name       string
		typ        *Type
		attributes Attributes
	}{
		{"unknown attribute", testBlobType, Attributes{"table_name": "t", "column_name": "c", "colour": "red"}},
		{"missing required field", testBlobType, Attributes{"table_name": "t"}},
		{"wrong field type", testBlobType, Attributes{"table_name": 7, "column_name": "c"}},
		{"empty string field", testBlobType, Attributes{"table_name": "", "column_name": "c"}},
		{"unsupported address", testBlobType, Attributes{"table_name": "t", "column_name": "c", "location": "/x"}},
		{"two addresses", testBlobType, Attributes{"table_name": "t", "column_name": "c", "row_index": 1, "row_condition": []any{"id", "==", 1}}},
		{"negative row index", testBlobType, Attributes{"table_name": "t", "column_name": "c", "row_index": -1}},
		{"fractional row index", testBlobType, Attributes{"table_name": "t", "column_name": "c", "row_index": 1.5}},
		{"bad operator", testBlobType, Attributes{"table_name": "t", "column_name": "c", "row_condition": []any{"id", "~", 1}}},
		{"short condition", testBlobType, Attributes{"table_name": "t", "column_name": "c", "row_condition": []any{"id", "=="}}},
		{"non-integer int field", testRangeType, Attributes{"range_offset": "ten"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.typ.New(test.attributes, file)
			if !fserr.Is(err, fserr.KindArgument) {
				t.Errorf("err = %v, want argument error", err)
			}
		})
	}
}

func TestNumericNormalization(t *testing.T) {
	fromInt := buildRowChain(t, "/vault.age", 3)
	fromFloat := buildRowChain(t, "/vault.age", float64(3))
	fromUint := buildRowChain(t, "/vault.age", uint64(3))
	fromNumber := buildRowChain(t, "/vault.age", json.Number("3"))
	fromDecimal := buildRowChain(t, "/vault.age", json.Number("3.0"))

	for name, spec := range map[string]*PathSpec{
		"float64":         fromFloat,
		"uint64":          fromUint,
		"json.Number":     fromNumber,
		"decimal literal": fromDecimal,
	} {
		if !spec.Equal(fromInt) {
			t.Errorf("%s row index chain not equal to int chain", name)
		}
		if spec.Identity() != fromInt.Identity() {
			t.Errorf("%s row index chain has a different identity", name)
		}
	}

	if address, ok := fromFloat.Address().(RowIndex); !ok || address != 3 {
		t.Errorf("Address() = %#v, want RowIndex(3)", fromFloat.Address())
	}

	volume := fromInt.Parent()
	for _, value := range []any{json.Number("3.5"), 3.5} {
		if _, err := testBlobType.New(Attributes{"table_name": "blobs", "column_name": "data", "row_index": value}, volume); !fserr.Is(err, fserr.KindArgument) {
			t.Errorf("row_index %v (%T): err = %v, want argument error", value, value, err)
		}
	}
}

func TestRowConditionValueNormalization(t *testing.T) {
	volume := buildRowChain(t, "/vault.age", nil).Parent()
	build := func(value any) *PathSpec {
		return mustNew(t, testBlobType, Attributes{
			"table_name": "blobs", "column_name": "data",
			"row_condition": []any{"id", "=", value},
		}, volume)
	}

	want := build(int64(3))
	for _, value := range []any{3, float64(3), json.Number("3"), json.Number("3.0"), uint64(3)} {
		spec := build(value)
		if !spec.Equal(want) || spec.Identity() != want.Identity() {
			t.Errorf("row_condition value %v (%T) builds a different chain", value, value)
		}
	}

	fractional := build(json.Number("2.5"))
	if condition := fractional.Address().(RowCondition); condition.Value != 2.5 {
		t.Errorf("fractional value = %#v, want 2.5", condition.Value)
	}
	if !fractional.Equal(build(2.5)) {
		t.Error("fractional json.Number and float64 build different chains")
	}
}

func TestIndependentChainsEqual(t *testing.T) {
	first := buildRowChain(t, "/vault.age", 7)
	second := buildRowChain(t, "/vault.age", 7)

	if first == second {
		t.Fatal("test built the same pointer twice")
	}
	if !first.Equal(second) {
		t.Error("independently built chains are not equal")
	}
	if first.Identity() != second.Identity() {
		t.Error("independently built chains hash differently")
	}
	if first.CanonicalKey() != second.CanonicalKey() {
		t.Error("independently built chains have different canonical keys")
	}
}

func TestChangedAttributeBreaksEquality(t *testing.T) {
	base := buildRowChain(t, "/vault.age", 7)

	changes := map[string]*PathSpec{
		"row index":      buildRowChain(t, "/vault.age", 8),
		"outer location": buildRowChain(t, "/other.age", 7),
		"truncated":      base.Parent(),
	}
	file := mustNew(t, testFileType, Attributes{"location": "/vault.age"}, nil)
	changes["missing middle layer"] = mustNew(t, testBlobType, Attributes{"table_name": "blobs", "column_name": "data", "row_index": 7}, file)
	changes["other column"] = mustNew(t, testBlobType, Attributes{"table_name": "blobs", "column_name": "meta", "row_index": 7}, base.Parent())

	for name, changed := range changes {
		if base.Equal(changed) || changed.Equal(base) {
			t.Errorf("%s: chains compare equal", name)
		}
		if base.Identity() == changed.Identity() {
			t.Errorf("%s: identities collide", name)
		}
	}
}

func TestCanonicalKeyExcludesOwnAddress(t *testing.T) {
	root := buildRowChain(t, "/vault.age", nil)
	row3 := buildRowChain(t, "/vault.age", 3)
	row4 := buildRowChain(t, "/vault.age", 4)
	byCondition := mustNew(t, testBlobType, Attributes{
		"table_name": "blobs", "column_name": "data",
		"row_condition": []any{"id", "==", 12},
	}, row3.Parent())

	for name, spec := range map[string]*PathSpec{"row 3": row3, "row 4": row4, "condition": byCondition} {
		if spec.CanonicalKey() != root.CanonicalKey() {
			t.Errorf("%s: canonical key differs from the table root", name)
		}
		if spec.Identity() == root.Identity() {
			t.Errorf("%s: identity equals the table root identity", name)
		}
	}

	// A parent's address selects which bytes are wrapped, so it stays
	// part of the key.
	other := buildRowChain(t, "/other.age", 3)
	if other.CanonicalKey() == row3.CanonicalKey() {
		t.Error("canonical key ignores the parent's location")
	}

	if root.CanonicalKey() != root.Identity() {
		t.Error("address-free node: canonical key should equal identity")
	}
}

func TestWithoutAddress(t *testing.T) {
	row := buildRowChain(t, "/vault.age", 3)
	root := row.WithoutAddress()

	if root.Address() != nil {
		t.Errorf("WithoutAddress().Address() = %v", root.Address())
	}
	if root.StringField("table_name") != "blobs" {
		t.Error("WithoutAddress dropped identity fields")
	}
	if root.Parent() != row.Parent() {
		t.Error("WithoutAddress changed the parent")
	}
	if root.WithoutAddress() != root {
		t.Error("WithoutAddress of an address-free node should return the node")
	}
}

func TestRowConditionNormalization(t *testing.T) {
	volume := buildRowChain(t, "/vault.age", nil).Parent()
	spec := mustNew(t, testBlobType, Attributes{
		"table_name": "blobs", "column_name": "data",
		"row_condition": []any{"name", "like", "report%"},
	}, volume)

	condition, ok := spec.Address().(RowCondition)
	if !ok {
		t.Fatalf("Address() = %T, want RowCondition", spec.Address())
	}
	if condition.Operator != "LIKE" {
		t.Errorf("operator = %q, want LIKE", condition.Operator)
	}

	typed := mustNew(t, testBlobType, Attributes{
		"table_name": "blobs", "column_name": "data",
		"row_condition": RowCondition{Column: "name", Operator: "LIKE", Value: "report%"},
	}, volume)
	if !typed.Equal(spec) {
		t.Error("RowCondition value and encoded form build different chains")
	}
}

func TestElementsRoundtrip(t *testing.T) {
	original := buildRowChain(t, "/vault.age", 3)

	elements := original.Elements()
	if len(elements) != 3 {
		t.Fatalf("len(Elements()) = %d, want 3", len(elements))
	}
	if elements[0].Type != "OS" || elements[0].HasParent {
		t.Errorf("first element = %+v, want OS without parent", elements[0])
	}
	if elements[2].Attributes["row_index"] != int64(3) {
		t.Errorf("row_index attribute = %#v", elements[2].Attributes["row_index"])
	}

	rebuilt, err := FromElements(elements, testLookup)
	if err != nil {
		t.Fatalf("FromElements: %v", err)
	}
	if !rebuilt.Equal(original) {
		t.Errorf("FromElements rebuilt %s, want %s", rebuilt, original)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	volume := buildRowChain(t, "/vault.age", nil).Parent()
	original := mustNew(t, testBlobType, Attributes{
		"table_name": "blobs", "column_name": "data",
		"row_condition": []any{"id", ">=", 40},
	}, volume)

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := Unmarshal(data, testLookup)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Identity() != original.Identity() {
		t.Errorf("decoded %s, want %s", decoded, original)
	}
}

func TestJSONElementsRebuild(t *testing.T) {
	input := `[
		{"type": "OS", "attributes": {"location": "/data/ranges.bin"}, "has_parent": false},
		{"type": "DATA_RANGE", "attributes": {"range_offset": 512, "range_size": 1024}, "has_parent": true}
	]`
	var elements []Element
	if err := json.Unmarshal([]byte(input), &elements); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	spec, err := FromElements(elements, testLookup)
	if err != nil {
		t.Fatalf("FromElements: %v", err)
	}
	offset, ok := spec.IntField("range_offset")
	if !ok || offset != 512 {
		t.Errorf("range_offset = %d, %t", offset, ok)
	}
}

func TestFromElementsErrors(t *testing.T) {
	tests := []struct {
		name     string
		elements []Element
		kind     fserr.Kind
	}{
		{"empty", nil, fserr.KindArgument},
		{"unknown tag", []Element{{Type: "NTFS"}}, fserr.KindStructural},
		{"first has parent", []Element{{Type: "OS", HasParent: true}}, fserr.KindStructural},
		{"inner lacks parent", []Element{
			{Type: "OS", Attributes: map[string]any{"location": "/a"}},
			{Type: "AGE"},
		}, fserr.KindStructural},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := FromElements(test.elements, testLookup)
			if !fserr.Is(err, test.kind) {
				t.Errorf("err = %v, want %v", err, test.kind)
			}
		})
	}
}

func TestString(t *testing.T) {
	spec := buildRowChain(t, "/vault.age", 3)
	got := spec.String()
	want := "OS{location=/vault.age} > AGE > SQLITE_BLOB{column_name=data, table_name=blobs, row_index=3}"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if !strings.HasPrefix(spec.CanonicalKey().String(), spec.CanonicalKey().Short()) {
		t.Error("Short() is not a prefix of String()")
	}
}
