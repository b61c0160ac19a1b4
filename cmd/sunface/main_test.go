package main

import (
	"image"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    image.Point
		wantErr bool
	}{
		{in: "320x240", want: image.Pt(320, 240)},
		{in: " 64X64 ", want: image.Pt(64, 64)},
		{in: "320", wantErr: true},
		{in: "0x10", wantErr: true},
		{in: "10x-1", wantErr: true},
		{in: "axb", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseSize(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSize(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("parseSize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
