package ronin

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ronin prefix", "ronin:b00f9ad1dae1e78e05b823ef27c162a610e0a706", "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706"},
		{"0x prefix untouched", "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706", "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706"},
		{"casing preserved", "ronin:B00F9AD1dae1e78e05b823ef27c162a610e0a706", "0xB00F9AD1dae1e78e05b823ef27c162a610e0a706"},
		{"no prefix", "b00f9ad1dae1e78e05b823ef27c162a610e0a706", "b00f9ad1dae1e78e05b823ef27c162a610e0a706"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAddress(tt.in); got != tt.want {
				t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"ronin form", "ronin:b00f9ad1dae1e78e05b823ef27c162a610e0a706", "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706", false},
		{"hex form", "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706", "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706", false},
		{"checksummed form", "ronin:B00f9AD1dAe1E78E05B823Ef27C162a610E0A706", "0xB00f9AD1dAe1E78E05B823Ef27C162a610E0A706", false},
		{"too short", "ronin:b00f9ad1", "", true},
		{"too long", "ronin:b00f9ad1dae1e78e05b823ef27c162a610e0a706ff", "", true},
		{"not hex", "ronin:b00f9ad1dae1e78e05b823ef27c162a610e0a7zz", "", true},
		{"empty", "", "", true},
		{"garbage", "hello world", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, parsed, err := ParseAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if normalized != tt.want {
				t.Errorf("ParseAddress(%q) normalized = %q, want %q", tt.in, normalized, tt.want)
			}
			if parsed != common.HexToAddress(tt.want) {
				t.Errorf("ParseAddress(%q) parsed = %s, want %s", tt.in, parsed.Hex(), common.HexToAddress(tt.want).Hex())
			}
		})
	}
}
