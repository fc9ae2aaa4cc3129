package document

import (
	"fmt"

	"github.com/diewo77/go-erpdocs/validation"
)

// CodeExceedsGross flags a header discount larger than the gross amount.
const CodeExceedsGross = "exceeds_gross"

// ValidationError carries every violation found on a document.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Violations)
}

// Validate checks d for saving. All problems are collected; nothing
// short-circuits. It returns nil or a *ValidationError.
func Validate(d Document) error {
	v := validation.Violations{}
	h := d.Header

	validation.Required("counterparty_ref", h.CounterpartyRef, v)
	validation.Required("salesperson_ref", h.SalespersonRef, v)
	validation.Required("location_ref", h.LocationRef, v)
	validation.Email("contact_email", h.ContactEmail, v)
	validation.Phone("contact_phone", h.ContactPhone, v)
	if h.DocumentDate.IsZero() {
		v.Add("document_date", validation.CodeRequired)
	}
	switch {
	case h.PaymentMode == "":
		v.Add("payment_mode", validation.CodeRequired)
	case !h.PaymentMode.Valid():
		v.Add("payment_mode", validation.CodeOutOfRange)
	}

	for f, r := range h.Rejected {
		v.Add(string(f), r.Code)
	}
	validation.NonNegative(string(FieldHeaderTax), h.HeaderTaxPercent, v)
	if d.Kind.DiscountApplies() {
		validation.NonNegative(string(FieldHeaderDiscount), h.HeaderDiscount, v)
		if h.HeaderDiscount.GreaterThan(GrossAmount(d.Lines)) {
			v.Add(string(FieldHeaderDiscount), CodeExceedsGross)
		}
	}

	if len(d.Lines) == 0 {
		v.Add("lines", validation.CodeRequired)
	}
	for i, l := range d.Lines {
		for f, r := range l.Rejected {
			v.Add(validation.Line(i, string(f)), r.Code)
		}
		validation.Required(validation.Line(i, "description"), l.Description, v)
		validation.PositiveDecimal(validation.Line(i, string(FieldQuantity)), l.Quantity, v)
		validation.PositiveDecimal(validation.Line(i, string(FieldUnitPrice)), l.UnitPrice, v)
		validation.NonNegative(validation.Line(i, string(FieldTaxRate)), l.TaxRatePercent, v)
		if l.Type == LineInventory {
			validation.Required(validation.Line(i, "unit"), l.Unit, v)
		}
	}

	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}
