package validation

import (
	"strings"
	"testing"

	"qrypta/pqc/internal/models"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "lowercase", address: "0x" + strings.Repeat("a", 40)},
		{name: "checksummed", address: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"},
		{name: "digits", address: "0x" + strings.Repeat("0", 40)},
		{name: "missing prefix", address: strings.Repeat("a", 40), wantErr: true},
		{name: "uppercase prefix", address: "0X" + strings.Repeat("a", 40), wantErr: true},
		{name: "too short", address: "0x" + strings.Repeat("a", 39), wantErr: true},
		{name: "too long", address: "0x" + strings.Repeat("a", 41), wantErr: true},
		{name: "non hex character", address: "0x" + strings.Repeat("a", 39) + "g", wantErr: true},
		{name: "leading space", address: " 0x" + strings.Repeat("a", 40), wantErr: true},
		{name: "empty", address: "", wantErr: true},
		{name: "prefix only", address: "0x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAddress(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
			if err != nil && !models.IsKind(err, models.KindInvalidAddress) {
				t.Errorf("expected InvalidAddress, got %v", err)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "integer", amount: "1"},
		{name: "fraction", amount: "1.25"},
		{name: "leading zero fraction", amount: "0.5"},
		{name: "many decimals", amount: "0.0000000000000000000001"},
		{name: "large", amount: "123456789012345678901234567890"},
		{name: "zero", amount: "0", wantErr: true},
		{name: "zero fraction", amount: "0.000", wantErr: true},
		{name: "negative", amount: "-1", wantErr: true},
		{name: "explicit plus", amount: "+1", wantErr: true},
		{name: "empty", amount: "", wantErr: true},
		{name: "letters", amount: "abc", wantErr: true},
		{name: "infinity", amount: "Infinity", wantErr: true},
		{name: "nan", amount: "NaN", wantErr: true},
		{name: "exponent", amount: "1e5", wantErr: true},
		{name: "trailing dot", amount: "5.", wantErr: true},
		{name: "leading dot", amount: ".5", wantErr: true},
		{name: "two dots", amount: "1.2.3", wantErr: true},
		{name: "hex", amount: "0x10", wantErr: true},
		{name: "comma", amount: "1,5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAmount(%q) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
			}
			if err != nil && !models.IsKind(err, models.KindInvalidAmount) {
				t.Errorf("expected InvalidAmount, got %v", err)
			}
		})
	}
}
