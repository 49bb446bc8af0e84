package procedure

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestHasFields(t *testing.T) {
	raw := []byte(`{
		"name": "KATT",
		"kind": "user",
		"profile": {"id": "123"}
	}`)

	view, err := ParseFields(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("matches when all fields present", func(t *testing.T) {
		d := HasFields("name", "kind")
		if !d.Match(view) {
			t.Error("expected match")
		}
	})

	t.Run("matches nested fields", func(t *testing.T) {
		d := HasFields("name", "profile.id")
		if !d.Match(view) {
			t.Error("expected match")
		}
	})

	t.Run("fails when any field missing", func(t *testing.T) {
		d := HasFields("name", "missing")
		if d.Match(view) {
			t.Error("expected no match")
		}
	})

	t.Run("matches with no fields", func(t *testing.T) {
		d := HasFields()
		if !d.Match(view) {
			t.Error("expected match for empty field list")
		}
	})
}

func TestFieldEquals(t *testing.T) {
	raw := []byte(`{
		"kind": "user",
		"count": 42
	}`)

	view, err := ParseFields(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("matches exact string value", func(t *testing.T) {
		if !FieldEquals("kind", "user").Match(view) {
			t.Error("expected match")
		}
	})

	t.Run("fails on wrong value", func(t *testing.T) {
		if FieldEquals("kind", "admin").Match(view) {
			t.Error("expected no match")
		}
	})

	t.Run("fails on missing field", func(t *testing.T) {
		if FieldEquals("missing", "user").Match(view) {
			t.Error("expected no match")
		}
	})

	t.Run("fails on non-string field", func(t *testing.T) {
		if FieldEquals("count", "42").Match(view) {
			t.Error("expected no match for number")
		}
	})
}

func TestFieldIn(t *testing.T) {
	view, err := ParseFields([]byte(`{"kind": "user"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("matches any listed value", func(t *testing.T) {
		if !FieldIn("kind", "admin", "user").Match(view) {
			t.Error("expected match")
		}
	})

	t.Run("fails when value not listed", func(t *testing.T) {
		if FieldIn("kind", "admin", "guest").Match(view) {
			t.Error("expected no match")
		}
	})

	t.Run("fails with no values", func(t *testing.T) {
		if FieldIn("kind").Match(view) {
			t.Error("expected no match")
		}
	})
}

func TestFieldFunc(t *testing.T) {
	view, err := ParseFields([]byte(`{"limit": 50, "name": "KATT"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	atMost := func(n int64) func(gjson.Result) bool {
		return func(r gjson.Result) bool { return r.Type == gjson.Number && r.Int() <= n }
	}

	t.Run("matches accepted value", func(t *testing.T) {
		if !FieldFunc("limit", atMost(100)).Match(view) {
			t.Error("expected match")
		}
	})

	t.Run("fails on rejected value", func(t *testing.T) {
		if FieldFunc("limit", atMost(10)).Match(view) {
			t.Error("expected no match")
		}
	})

	t.Run("fails on wrong type", func(t *testing.T) {
		if FieldFunc("name", atMost(100)).Match(view) {
			t.Error("expected no match for string")
		}
	})

	t.Run("missing field never reaches fn", func(t *testing.T) {
		d := FieldFunc("missing", func(gjson.Result) bool {
			t.Error("fn called for missing field")
			return true
		})
		if d.Match(view) {
			t.Error("expected no match")
		}
	})
}

func TestCombinators(t *testing.T) {
	view, err := ParseFields([]byte(`{"kind": "user", "name": "KATT"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	yes := HasFields("kind")
	no := HasFields("missing")

	tests := []struct {
		name string
		d    Discriminator
		want bool
	}{
		{"and all match", And(yes, FieldEquals("name", "KATT")), true},
		{"and one fails", And(yes, no), false},
		{"and empty", And(), true},
		{"or one matches", Or(no, yes), true},
		{"or none match", Or(no, no), false},
		{"or empty", Or(), false},
		{"not inverts match", Not(yes), false},
		{"not inverts miss", Not(no), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Match(view); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
