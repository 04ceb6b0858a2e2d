package core

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "local kenyan with leading zero",
			raw:  "0712345678",
			want: "254712345678",
		},
		{
			name: "already prefixed kenya",
			raw:  "+254712345678",
			want: "254712345678",
		},
		{
			name: "kenya with spaces and dashes",
			raw:  "0712-345 678",
			want: "254712345678",
		},
		{
			name: "india country code",
			raw:  "919876543210",
			want: "919876543210",
		},
		{
			name: "north america",
			raw:  "+1 415 555 0123",
			want: "14155550123",
		},
		{
			name: "bare nine digits defaults to kenya",
			raw:  "712345678",
			want: "254712345678",
		},
		{
			name:    "too short",
			raw:     "123",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "non-digits only",
			raw:     "call me maybe",
			wantErr: true,
		},
		{
			name:    "unclassifiable long number",
			raw:     "00123456789012345",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPhoneNumber) {
					t.Fatalf("NormalizePhone(%q) error = %v, want ErrInvalidPhoneNumber", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhone(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
