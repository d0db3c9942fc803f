package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestToRecord(t *testing.T) {
	schema := Schema{"idProducto", "nombre", "stock"}

	tests := []struct {
		name string
		row  []string
		want Record
	}{
		{
			name: "exact width",
			row:  []string{"P1", "Huipil", "5"},
			want: Record{"idProducto": "P1", "nombre": "Huipil", "stock": "5"},
		},
		{
			name: "short row pads with empty strings",
			row:  []string{"P1"},
			want: Record{"idProducto": "P1", "nombre": "", "stock": ""},
		},
		{
			name: "extra cells are ignored",
			row:  []string{"P1", "Huipil", "5", "ignored"},
			want: Record{"idProducto": "P1", "nombre": "Huipil", "stock": "5"},
		},
		{
			name: "empty row",
			row:  nil,
			want: Record{"idProducto": "", "nombre": "", "stock": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRecord(schema, tt.row)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToRecord() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToRow(t *testing.T) {
	schema := Schema{"idProducto", "nombre", "stock"}
	rec := Record{"stock": "5", "idProducto": "P1", "color": "rojo"}

	got := ToRow(schema, rec)
	want := []string{"P1", "", "5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToRow() = %v, want %v", got, want)
	}
}

func TestMergeRow(t *testing.T) {
	schema := Schema{"id", "a", "b", "c"}
	scanned := Record{"id": "1", "a": "x", "b": "y"}
	updates := Record{"b": "", "z": "dropped"}

	got := mergeRow(schema, scanned, updates)
	want := []string{"1", "x", "", ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeRow() = %v, want %v", got, want)
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: "42", want: "42"},
		{in: 42, want: "42"},
		{in: int64(-7), want: "-7"},
		{in: uint8(9), want: "9"},
		{in: 42.0, want: "42"},
		{in: 1.5, want: "1.5"},
		{in: float32(2.25), want: "2.25"},
		{in: json.Number("17"), want: "17"},
		{in: true, want: "true"},
		{in: nil, want: ""},
		{in: Productos, want: "productos"},
	}

	for _, tt := range tests {
		if got := NormalizeID(tt.in); got != tt.want {
			t.Errorf("NormalizeID(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindIndex(t *testing.T) {
	records := []Record{
		{"id": "7"},
		{"id": "42"},
		{"id": "42"},
	}

	if got := findIndex(records, "id", 42); got != 1 {
		t.Errorf("findIndex(42) = %d, want 1", got)
	}
	if got := findIndex(records, "id", "8"); got != -1 {
		t.Errorf("findIndex(8) = %d, want -1", got)
	}
	if got := findIndex(records, "missing", ""); got != 0 {
		t.Errorf("findIndex on absent field with empty id = %d, want 0", got)
	}
}

func TestRowPosition(t *testing.T) {
	if got := rowPosition(0); got != 2 {
		t.Errorf("rowPosition(0) = %d, want 2", got)
	}
}

func TestRecordMerge(t *testing.T) {
	base := Record{"a": "1", "b": "2"}
	got := base.Merge(Record{"b": "3", "c": "4"})

	want := Record{"a": "1", "b": "3", "c": "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
	if base["b"] != "2" {
		t.Error("Merge() must not modify the receiver")
	}
}

func TestSchemaMissing(t *testing.T) {
	s := Schema{"idProducto", "nombre"}
	got := s.Missing([]string{"idProducto", "stock", "nombre", "categoria"})
	want := []string{"stock", "categoria"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
	if s.Index("nombre") != 1 || s.Index("x") != -1 {
		t.Error("Index() returned wrong positions")
	}
}
