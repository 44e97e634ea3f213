package objectid

import "testing"

func TestNew_IsValidAndOrdered(t *testing.T) {
	prev := New()
	if !Valid(prev) {
		t.Fatalf("Valid(%q) = false", prev)
	}
	for i := 0; i < 100; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("id %q not after %q", next, prev)
		}
		prev = next
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"507F1F77BCF86CD799439011", true},
		{"", false},
		{"123", false},
		{"not-an-object-id-at-all!", false},
		{"507f1f77bcf86cd79943901z", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"507f1f77bcf86cd799439011", "507f1f77bcf86cd799439011", true},
		{"507F1F77BCF86CD799439011", "507f1f77bcf86cd799439011", true},
		{"507f1F77bcF86cd799439011", "507f1f77bcf86cd799439011", true},
		{"", "", false},
		{"507f1f77bcf86cd79943901z", "", false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Parse(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
