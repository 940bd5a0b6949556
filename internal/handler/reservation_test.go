package handler

import (
	"reflect"
	"testing"
)

func TestDerivePickupAddresses(t *testing.T) {
	tests := []struct {
		name      string
		seatCount uint32
		list      []string
		single    string
		want      []string
		wantErr   bool
	}{
		{
			name:      "list matches seat count",
			seatCount: 2,
			list:      []string{"Main Gate", "Library"},
			want:      []string{"Main Gate", "Library"},
		},
		{
			name:      "short list padded with last entry",
			seatCount: 3,
			list:      []string{"a", "b"},
			want:      []string{"a", "b", "b"},
		},
		{
			name:      "long list truncated",
			seatCount: 2,
			list:      []string{"a", "b", "c", "d"},
			want:      []string{"a", "b"},
		},
		{
			name:      "single address fanned out",
			seatCount: 3,
			single:    "Main Gate",
			want:      []string{"Main Gate", "Main Gate", "Main Gate"},
		},
		{
			name:      "list takes precedence over single",
			seatCount: 2,
			list:      []string{"a"},
			single:    "z",
			want:      []string{"a", "a"},
		},
		{
			name:      "blank entries dropped before padding",
			seatCount: 2,
			list:      []string{"  ", "a", ""},
			want:      []string{"a", "a"},
		},
		{
			name:      "all blank list falls back to single",
			seatCount: 1,
			list:      []string{" ", ""},
			single:    "Gate",
			want:      []string{"Gate"},
		},
		{
			name:      "neither input is an error",
			seatCount: 1,
			wantErr:   true,
		},
		{
			name:      "whitespace only single is an error",
			seatCount: 1,
			single:    "   ",
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := derivePickupAddresses(tt.seatCount, tt.list, tt.single)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("derivePickupAddresses() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("derivePickupAddresses() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("derivePickupAddresses() = %v, want %v", got, tt.want)
			}
			if uint32(len(got)) != tt.seatCount {
				t.Errorf("derivePickupAddresses() returned %d addresses, want %d", len(got), tt.seatCount)
			}
		})
	}
}
