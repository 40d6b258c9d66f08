package model

import (
	"encoding/json"
	"slices"
	"testing"
)

// TestNormalizePath tests stripping of leading slashes and carriage returns.
func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain path", raw: "admin", want: "admin"},
		{name: "leading slash", raw: "/admin", want: "admin"},
		{name: "several leading slashes", raw: "//admin", want: "admin"},
		{name: "trailing carriage return", raw: "admin\r", want: "admin"},
		{name: "both", raw: "/private/\r", want: "private/"},
		{name: "root only", raw: "/", want: ""},
		{name: "carriage return only", raw: "\r", want: ""},
		{name: "several trailing carriage returns", raw: "/admin\r\r", want: "admin"},
		{name: "inner slashes kept", raw: "a/b/c", want: "a/b/c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePath(tt.raw); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestPathSet tests insertion, deduplication, and freezing.
func TestPathSet(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates normalized paths", func(t *testing.T) {
		t.Parallel()

		ps := NewPathSet()
		ps.Add("/admin")
		ps.Add("admin")
		ps.Add("admin\r")
		ps.Add("/secret")

		if ps.Len() != 2 {
			t.Errorf("expected 2 paths, got %d: %v", ps.Len(), ps.Paths())
		}
	})

	t.Run("drops empty paths", func(t *testing.T) {
		t.Parallel()

		ps := NewPathSet()
		if ps.Add("/") {
			t.Error("expected Add(\"/\") to report no change")
		}
		if ps.Add("") {
			t.Error("expected Add(\"\") to report no change")
		}
		if ps.Len() != 0 {
			t.Errorf("expected empty set, got %v", ps.Paths())
		}
	})

	t.Run("paths are sorted", func(t *testing.T) {
		t.Parallel()

		ps := PathSetOf("zeta", "alpha", "mid")
		want := []string{"alpha", "mid", "zeta"}
		if got := ps.Paths(); !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("contains normalizes the query", func(t *testing.T) {
		t.Parallel()

		ps := PathSetOf("admin")
		if !ps.Contains("/admin") {
			t.Error("expected /admin to be contained")
		}
		if ps.Contains("other") {
			t.Error("did not expect other to be contained")
		}
	})

	t.Run("add to frozen set panics", func(t *testing.T) {
		t.Parallel()

		ps := PathSetOf("a")
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		ps.Add("b")
	})

	t.Run("nil set is empty", func(t *testing.T) {
		t.Parallel()

		var ps *PathSet
		if ps.Len() != 0 || ps.Paths() != nil || ps.Contains("a") {
			t.Error("expected nil set to behave as empty")
		}
	})

	t.Run("marshals as sorted array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(PathSetOf("b", "a"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `["a","b"]` {
			t.Errorf("got %s", data)
		}
	})
}
