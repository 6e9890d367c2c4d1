package model

import "testing"

func TestContact_MatchesEmail(t *testing.T) {
	c := Contact{ID: "c1", Email: "a@b.com"}

	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.com", true},
		{"A@B.COM", true},
		{"a@B.com", true},
		{"a@b.co", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := c.MatchesEmail(tt.email); got != tt.want {
			t.Errorf("MatchesEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestContainsEmail(t *testing.T) {
	contacts := []Contact{
		{ID: "1", Email: "first@x.com"},
		{ID: "2", Email: "Second@X.com"},
	}

	if !ContainsEmail(contacts, "second@x.com") {
		t.Error("expected case-insensitive match")
	}
	if ContainsEmail(contacts, "third@x.com") {
		t.Error("expected no match for unknown email")
	}
	if ContainsEmail(nil, "first@x.com") {
		t.Error("expected no match in empty list")
	}
}
