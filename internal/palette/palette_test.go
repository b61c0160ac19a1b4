package palette

import (
	"errors"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RGB
	}{
		{"black", "#000000", Black},
		{"white upper", "#FFFFFF", White},
		{"lower case", "#1a2b3c", RGB{0x1A, 0x2B, 0x3C}},
		{"shorthand", "#888", AmbientGray},
		{"trimmed", "  #FF0000 ", RGB{0xFF, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if err != nil {
				t.Fatalf("ParseHex(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseHex_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-a-color", "000000", "#12345", "#GGGGGG", "#1234567", "#12 456"} {
		if _, err := ParseHex(in); !errors.Is(err, ErrInvalidColor) {
			t.Fatalf("ParseHex(%q) error = %v, want ErrInvalidColor", in, err)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	c := RGB{0x0A, 0xB0, 0xFF}
	if got := c.Hex(); got != "#0AB0FF" {
		t.Fatalf("Hex() = %q, want #0AB0FF", got)
	}
	back, err := ParseHex(c.Hex())
	if err != nil || back != c {
		t.Fatalf("ParseHex(Hex()) = %v, %v; want %v", back, err, c)
	}
}

func TestDefault(t *testing.T) {
	d := Default()
	if d.Background != Black || d.DateTime != White {
		t.Fatalf("Default() = %v, want black background and white text", d)
	}
}

func TestBlendEndpoints(t *testing.T) {
	if got := Black.Blend(White, 0); got != Black {
		t.Fatalf("Blend(t=0) = %v, want black", got)
	}
	if got := Black.Blend(White, 1); got != White {
		t.Fatalf("Blend(t=1) = %v, want white", got)
	}
	mid := Black.Blend(White, 0.5)
	if mid.Luminance() <= Black.Luminance() || mid.Luminance() >= White.Luminance() {
		t.Fatalf("Blend(t=0.5) = %v, want luminance between black and white", mid)
	}
}
