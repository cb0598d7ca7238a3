package store

import "testing"

func TestPQStringArray(t *testing.T) {
	if v := pqStringArray(nil); v != "{}" {
		t.Fatalf("nil slice: %v", v)
	}
	if v := pqStringArray([]string{}); v != "{}" {
		t.Fatalf("empty slice: %v", v)
	}
	if v := pqStringArray([]string{"a", "b"}); v != `{"a","b"}` {
		t.Fatalf("got %v", v)
	}
}

func TestNullIfEmpty(t *testing.T) {
	if v := nullIfEmpty(""); v != nil {
		t.Fatalf("empty string -> nil expected")
	}
	if v := nullIfEmpty("2026-01-01T00:00:00Z"); v != "2026-01-01T00:00:00Z" {
		t.Fatalf("got %v", v)
	}
}
