package model

import "testing"

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"Ana", "Torres", "Ana Torres"},
		{"Ana", "", "Ana"},
		{"", "Torres", "Torres"},
		{"", "", ""},
	}
	for _, tt := range tests {
		u := User{FirstName: tt.first, LastName: tt.last}
		if got := u.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() with first=%q last=%q = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}
