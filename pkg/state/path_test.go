package state

import (
	"reflect"
	"testing"
)

func TestValidPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"user", true},
		{"user.name", true},
		{"##local.3.count", true},
		{"", false},
		{"a..b", false},
		{"..", false},
		{".a", false},
		{"a.", false},
	}
	for _, tt := range tests {
		if got := ValidPath(tt.path); got != tt.want {
			t.Errorf("ValidPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestAncestors(t *testing.T) {
	got := Ancestors("a.b.c")
	want := []string{"a.b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ancestors = %v, want %v", got, want)
	}
	if len(Ancestors("a")) != 0 {
		t.Error("single segment has no ancestors")
	}
}

func TestIsDescendant(t *testing.T) {
	tests := []struct {
		path, ancestor string
		want           bool
	}{
		{"a.b", "a", true},
		{"a.b.c", "a", true},
		{"a", "a", false},
		{"ab", "a", false},
		{"a", "a.b", false},
	}
	for _, tt := range tests {
		if got := IsDescendant(tt.path, tt.ancestor); got != tt.want {
			t.Errorf("IsDescendant(%q, %q) = %v, want %v", tt.path, tt.ancestor, got, tt.want)
		}
	}
	if !Related("a", "a.b") || !Related("a.b", "a") || Related("a", "b") {
		t.Error("Related mismatch")
	}
}
