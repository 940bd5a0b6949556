package model

import "testing"

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusPending, true},
		{StatusAccepted, true},
		{StatusRejected, true},
		{"pending", false},
		{"CANCELLED", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidStatus(tt.status); got != tt.want {
			t.Errorf("ValidStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
