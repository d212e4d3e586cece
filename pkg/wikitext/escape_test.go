package wikitext

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Something|With|Pipes", "Something&#124;With&#124;Pipes"},
		{"[[Link]]", "&#91;&#91;Link&#93;&#93;"},
		{"a|[b]", "a&#124;&#91;b&#93;"},
		{"{{x}} = y\n", "{{x}} = y\n"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeIdentityWithoutMarkers(t *testing.T) {
	for _, s := range []string{"plain text", "a = b", "&amp; ; #", "München"} {
		if got := Escape(s); got != s {
			t.Errorf("Escape(%q) = %q, expected identity", s, got)
		}
	}
}

func TestEscapeTwice(t *testing.T) {
	once := Escape("a|b[c]")
	if twice := Escape(once); twice != once {
		t.Errorf("escaping escaped text changed it: %q -> %q", once, twice)
	}

	// Escaping is not reversible: a literal reference and an escaped pipe
	// produce the same output.
	if Escape("&#124;") != Escape("|") {
		t.Errorf("expected literal %q to be indistinguishable from an escaped pipe", "&#124;")
	}
}
