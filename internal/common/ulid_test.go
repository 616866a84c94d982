package common

import "testing"

func TestNewULID(t *testing.T) {
	a, err := NewULID()
	if err != nil {
		t.Fatalf("new ulid: %v", err)
	}
	b, err := NewULID()
	if err != nil {
		t.Fatalf("new ulid: %v", err)
	}
	if len(a) != 26 {
		t.Fatalf("unexpected length %d", len(a))
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if !IsULID(a) {
		t.Fatalf("expected %s to parse", a)
	}
	if IsULID("not-a-ulid") || IsULID("") {
		t.Fatalf("expected invalid ids to be rejected")
	}
}
