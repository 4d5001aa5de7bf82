package fingerprint

import "testing"

func TestHashDeterministic(t *testing.T) {
	in := map[string]any{"query": "funding", "company": "acme"}
	first, err := Hash(in)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := Hash(in)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if first != second {
		t.Fatalf("repeated hash differs: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestHashIgnoresKeyOrder(t *testing.T) {
	a, _ := Hash(map[string]any{"a": 1, "b": 2})
	b, _ := Hash(map[string]any{"b": 2, "a": 1})
	if a != b {
		t.Fatalf("key order changed the digest: %s vs %s", a, b)
	}
}

func TestHashChangesWithValue(t *testing.T) {
	a, _ := Hash(map[string]any{"query": "funding"})
	b, _ := Hash(map[string]any{"query": "hiring"})
	if a == b {
		t.Fatal("different values produced the same digest")
	}
}

func TestHashNested(t *testing.T) {
	a, _ := Hash(map[string]any{"input": map[string]any{"x": 1, "y": 2}})
	b, _ := Hash(map[string]any{"input": map[string]any{"y": 2, "x": 1}})
	if a != b {
		t.Fatal("nested key order changed the digest")
	}
}

func TestHashRejectsUnserializable(t *testing.T) {
	if _, err := Hash(map[string]any{"fn": func() {}}); err == nil {
		t.Fatal("expected error for unserializable input")
	}
}

func TestRequestScopesByUser(t *testing.T) {
	in := map[string]any{"query": "funding"}
	a, _ := Request("research", in, "u1")
	b, _ := Request("research", in, "u2")
	if a == b {
		t.Fatal("different users produced the same digest")
	}
	c, _ := Request("email-outreach", in, "u1")
	if a == c {
		t.Fatal("different endpoints produced the same digest")
	}
}
