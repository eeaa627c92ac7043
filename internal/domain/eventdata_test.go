package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEventData_RoundTripPreservesOrder(t *testing.T) {
	src := `{"zebra":1,"apple":"two","mango":true,"banana":3.50}`

	d := NewEventData()
	if err := json.Unmarshal([]byte(src), d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	wantKeys := []string{"zebra", "apple", "mango", "banana"}
	if !reflect.DeepEqual(d.Keys(), wantKeys) {
		t.Errorf("keys: got %v, want %v", d.Keys(), wantKeys)
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != src {
		t.Errorf("round trip rewrote the document:\n  got:  %s\n  want: %s", out, src)
	}
}

func TestEventData_ScalarKinds(t *testing.T) {
	d := NewEventData()
	if err := json.Unmarshal([]byte(`{"s":"txt","n":42,"f":1.5,"b":false}`), d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	tests := []struct {
		key  string
		kind ScalarKind
	}{
		{"s", KindString},
		{"n", KindNumber},
		{"f", KindNumber},
		{"b", KindBool},
	}
	for _, tt := range tests {
		v, ok := d.Get(tt.key)
		if !ok {
			t.Fatalf("key %q missing", tt.key)
		}
		if v.Kind != tt.kind {
			t.Errorf("key %q: kind %v, want %v", tt.key, v.Kind, tt.kind)
		}
	}
}

func TestEventData_RejectsNonScalar(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"nested object", `{"a":{"b":1}}`},
		{"nested array", `{"a":[1,2]}`},
		{"null value", `{"a":null}`},
		{"top-level array", `[1,2]`},
		{"top-level string", `"hi"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewEventData()
			if err := json.Unmarshal([]byte(tt.src), d); err == nil {
				t.Errorf("unmarshal of %s should fail", tt.src)
			}
		})
	}
}

func TestEventData_SetOverwriteKeepsPosition(t *testing.T) {
	d := NewEventData()
	d.Set("a", NumberValue("1"))
	d.Set("b", NumberValue("2"))
	d.Set("a", StringValue("changed"))

	if !reflect.DeepEqual(d.Keys(), []string{"a", "b"}) {
		t.Errorf("overwrite moved the key: %v", d.Keys())
	}
	v, _ := d.Get("a")
	if v.Kind != KindString || v.Str != "changed" {
		t.Errorf("overwrite lost the value: %#v", v)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"collapses duplicates", []string{"health", "am", "health"}, []string{"health", "am"}},
		{"trims and drops empties", []string{" health ", "", "  "}, []string{"health"}},
		{"keeps first-occurrence order", []string{"b", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
		{"nil stays empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
