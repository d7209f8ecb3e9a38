package entity

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDecodeOrdered(t *testing.T) {
	v, order, err := DecodeOrdered([]byte(`{"rows":[{"Name":"Ann","Age":30}],"a/b":{"z":1,"y":{"q":null,"p":[]}},"Name":"x","Name":"y"}`))
	if err != nil {
		t.Fatal(err)
	}
	var plain any
	if err := json.Unmarshal([]byte(`{"rows":[{"Name":"Ann","Age":30}],"a/b":{"z":1,"y":{"q":null,"p":[]}},"Name":"y"}`), &plain); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v, plain) {
		t.Fatalf("value = %#v, want %#v", v, plain)
	}

	want := KeyOrder{
		"":        {"rows", "a/b", "Name"},
		"/rows/0": {"Name", "Age"},
		"/a~1b":   {"z", "y"},
		"/a~1b/y": {"q", "p"},
	}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestDecodeOrderedRejects(t *testing.T) {
	for _, in := range []string{``, `{"a":1`, `{"a":1} {"b":2}`, `{"a":1} trailing`, `}`, `[1,]`} {
		if _, _, err := DecodeOrdered([]byte(in)); err == nil {
			t.Errorf("DecodeOrdered(%q) succeeded", in)
		}
	}
}

func TestKeyOrderKeysFallsBackToSorted(t *testing.T) {
	order := KeyOrder{"": {"b", "a"}}
	if got := order.Keys("", map[string]any{"a": 1, "b": 2}); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("recorded keys = %v", got)
	}
	if got := order.Keys("", map[string]any{"a": 1, "c": 2}); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("stale record keys = %v", got)
	}
	var none KeyOrder
	if got := none.Keys("/x", map[string]any{"b": 1, "a": 2}); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("unrecorded keys = %v", got)
	}
}

func TestPayloadKeepsMemberOrder(t *testing.T) {
	in := `{"Quarter":["Q1"],"Revenue":[10],"Cost":[{"z":1,"a":2}]}`
	var p Payload
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatal(err)
	}
	if p.Kind != PayloadObject {
		t.Fatalf("kind = %s", p.Kind)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != in {
		t.Errorf("round trip = %s, want %s", b, in)
	}

	scalar, err := PayloadFromJSON([]byte(`"just text"`))
	if err != nil {
		t.Fatal(err)
	}
	if scalar.Kind != PayloadText || scalar.Order != nil {
		t.Errorf("scalar payload = %+v", scalar)
	}
}
