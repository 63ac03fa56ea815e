package types

import (
	"encoding/json"
	"testing"
)

func TestNewID(t *testing.T) {
	id := NewID()
	if id.IsZero() {
		t.Fatal("NewID() returned zero value")
	}
	if err := id.Validate(); err != nil {
		t.Fatalf("NewID() generated invalid ID: %v", err)
	}
	if id == NewID() {
		t.Error("NewID() generated duplicate IDs")
	}
}

func TestParseID(t *testing.T) {
	t.Run("canonicalizes case", func(t *testing.T) {
		id, err := ParseID("550E8400-E29B-41D4-A716-446655440000")
		if err != nil {
			t.Fatalf("ParseID() error = %v", err)
		}
		if id.String() != "550e8400-e29b-41d4-a716-446655440000" {
			t.Errorf("ParseID did not canonicalize: %s", id)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for _, bad := range []string{"", "not-a-uuid", "550e8400-e29b-41d4"} {
			if _, err := ParseID(bad); err == nil {
				t.Errorf("ParseID(%q) should fail", bad)
			}
		}
	})
}

func TestMustParseID_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseID should panic on invalid input")
		}
	}()
	MustParseID("nope")
}

func TestID_JSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		id := NewID()

		data, err := json.Marshal(id)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var decoded ID
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if decoded != id {
			t.Errorf("round trip = %v, want %v", decoded, id)
		}
	})

	t.Run("zero marshals as null", func(t *testing.T) {
		data, err := json.Marshal(ID(""))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != "null" {
			t.Errorf("zero ID marshaled as %s, want null", data)
		}
	})

	t.Run("rejects non-UUID strings", func(t *testing.T) {
		var id ID
		if err := json.Unmarshal([]byte(`"not-a-uuid"`), &id); err == nil {
			t.Error("Unmarshal should reject non-UUID strings")
		}
	})
}
