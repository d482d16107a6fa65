package dbtypes

import (
	"encoding/json"
	"testing"
)

func TestJSONValueIsText(t *testing.T) {
	j, err := MarshalJSONValue(map[string]int{"currentStock": 4})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v, err := j.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	s, ok := v.(string)
	if !ok || s != `{"currentStock":4}` {
		t.Fatalf("unexpected driver value %#v", v)
	}
}

func TestJSONNilRoundTrip(t *testing.T) {
	j, err := MarshalJSONValue(nil)
	if err != nil || j != nil {
		t.Fatalf("expected nil JSON, got %s %v", j, err)
	}
	v, _ := j.Value()
	if v != nil {
		t.Fatalf("expected nil driver value")
	}

	out, err := json.Marshal(struct {
		Before JSON `json:"before"`
	}{})
	if err != nil || string(out) != `{"before":null}` {
		t.Fatalf("unexpected encoding %s %v", out, err)
	}
}

func TestJSONScan(t *testing.T) {
	var j JSON
	if err := j.Scan([]byte(`{"a":1}`)); err != nil || string(j) != `{"a":1}` {
		t.Fatalf("scan bytes: %s %v", j, err)
	}
	if err := j.Scan(`{"b":2}`); err != nil || string(j) != `{"b":2}` {
		t.Fatalf("scan string: %s %v", j, err)
	}
	if err := j.Scan(nil); err != nil || j != nil {
		t.Fatalf("scan nil: %s %v", j, err)
	}
	if err := j.Scan(42); err == nil {
		t.Fatalf("expected error for int")
	}
}
