// Package validation checks operator-supplied transfer fields before any stage
// touches the network.
package validation

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"qrypta/pqc/internal/models"
)

// decimalPattern is plain decimal notation: digits with an optional fractional part
var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ValidateAddress accepts only "0x" followed by exactly 40 hexadecimal characters
func ValidateAddress(s string) error {
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return models.Errorf(models.KindInvalidAddress, "invalid address %q: expected 0x followed by 40 hex characters", s)
	}
	return nil
}

// ValidateAmount accepts only finite, strictly positive decimal numbers.
// Precision is not limited here; base-unit conversion enforces it.
func ValidateAmount(s string) error {
	if !decimalPattern.MatchString(s) {
		return models.Errorf(models.KindInvalidAmount, "invalid amount %q: expected a positive decimal number", s)
	}
	if strings.Trim(strings.Replace(s, ".", "", 1), "0") == "" {
		return models.Errorf(models.KindInvalidAmount, "invalid amount %q: must be greater than zero", s)
	}
	return nil
}
