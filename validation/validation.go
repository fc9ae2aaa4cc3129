// Package validation collects field-level violations without short-circuiting,
// so every problem with a form is reported at once.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Violation codes.
const (
	CodeRequired     = "required"
	CodeNegative     = "must_not_be_negative"
	CodeNotANumber   = "not_a_number"
	CodeOutOfRange   = "out_of_range"
	CodeInvalidEmail = "invalid_email"
	CodeInvalidPhone = "invalid_phone"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,19}$`)
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already carries a violation.
// The first problem found on a field is the one reported.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Fields returns the violated field names in sorted order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (v Violations) String() string {
	parts := make([]string, 0, len(v))
	for _, f := range v.Fields() {
		parts = append(parts, f+": "+v[f])
	}
	return strings.Join(parts, ", ")
}

// Line returns the field name used for a line-level violation.
func Line(index int, field string) string {
	return fmt.Sprintf("lines[%d].%s", index, field)
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, CodeRequired)
	}
}

// PositiveDecimal treats zero as a missing value.
func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, CodeNegative)
		return
	}
	if val.IsZero() {
		v.Add(field, CodeRequired)
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, CodeNegative)
	}
}

// Email accepts an empty value; use Required to make it mandatory.
func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value != "" && !emailRegex.MatchString(value) {
		v.Add(field, CodeInvalidEmail)
	}
}

// Phone accepts an empty value; use Required to make it mandatory.
func Phone(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value != "" && !phoneRegex.MatchString(value) {
		v.Add(field, CodeInvalidPhone)
	}
}
