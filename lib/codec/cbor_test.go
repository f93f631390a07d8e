// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// sampleElement mirrors the shape of a serialized chain element: json
// tags only, relying on fxamacker's fallback.
type sampleElement struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
	HasParent  bool           `json:"has_parent"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleElement{
		Type:       "SQLITE_BLOB",
		Attributes: map[string]any{"table_name": "blobs", "row_index": int64(3)},
		HasParent:  true,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleElement
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Type != original.Type || decoded.HasParent != original.HasParent {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if decoded.Attributes["table_name"] != "blobs" {
		t.Errorf("table_name = %v, want blobs", decoded.Attributes["table_name"])
	}
}

func TestMarshalDeterministicMapOrder(t *testing.T) {
	// Go map iteration order is random; the encoding must not be.
	first, err := Marshal(map[string]any{"a": 1, "b": 2, "c": 3, "d": 4})
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 20 {
		again, err := Marshal(map[string]any{"d": 4, "c": 3, "b": 2, "a": 1})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestUnmarshalIntegersAsInt64(t *testing.T) {
	data, err := Marshal(map[string]any{"row_index": 7, "range_offset": -2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if value, ok := decoded["row_index"].(int64); !ok || value != 7 {
		t.Errorf("row_index = %#v, want int64(7)", decoded["row_index"])
	}
	if value, ok := decoded["range_offset"].(int64); !ok || value != -2 {
		t.Errorf("range_offset = %#v, want int64(-2)", decoded["range_offset"])
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var element sampleElement
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &element); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"type": "AGE"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	if !strings.Contains(notation, `"type"`) || !strings.Contains(notation, `"AGE"`) {
		t.Errorf("notation %q does not contain the encoded pair", notation)
	}
}

func BenchmarkMarshal(b *testing.B) {
	element := sampleElement{
		Type:       "SQLITE_BLOB",
		Attributes: map[string]any{"table_name": "blobs", "column_name": "data"},
		HasParent:  true,
	}

	b.ReportAllocs()
	for b.Loop() {
		Marshal(element)
	}
}
