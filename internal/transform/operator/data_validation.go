package operator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tgberrios/datasync/internal/transform"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
var phoneDigits = regexp.MustCompile(`\D`)

// DataValidation checks source_column against validation_type ∈
// {address, phone, email}, writing a normalized validated-value column
// (target_column, default source_column+"_validated") and an is_valid
// boolean column (target_column+"_is_valid").
type DataValidation struct{}

func (DataValidation) TypeName() string { return "data_validation" }

func (DataValidation) Validate(cfg map[string]any) error {
	if _, ok := configString(cfg, "source_column"); !ok {
		return fmt.Errorf("data_validation: source_column is required")
	}
	switch vt, _ := configString(cfg, "validation_type"); vt {
	case "address", "phone", "email":
	default:
		return fmt.Errorf("data_validation: unknown validation_type %q", vt)
	}
	return nil
}

func (DataValidation) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	source, _ := configString(cfg, "source_column")
	validationType, _ := configString(cfg, "validation_type")
	target, _ := configString(cfg, "target_column")
	if target == "" {
		target = source + "_validated"
	}
	validCol := target + "_is_valid"

	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		nr := cloneRow(r)
		raw, _ := r[source].(string)
		var value string
		var valid bool
		switch validationType {
		case "email":
			value, valid = validateEmail(raw)
		case "phone":
			value, valid = validatePhone(raw)
		case "address":
			value, valid = validateAddress(raw)
		}
		nr[target] = value
		nr[validCol] = valid
		out[i] = nr
	}
	return out, nil
}

func validateEmail(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	return s, s != "" && emailPattern.MatchString(s)
}

func validatePhone(raw string) (string, bool) {
	digits := phoneDigits.ReplaceAllString(raw, "")
	return digits, len(digits) >= 7 && len(digits) <= 15
}

func validateAddress(raw string) (string, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	hasDigit := false
	hasLetter := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	return s, s != "" && hasDigit && hasLetter
}
