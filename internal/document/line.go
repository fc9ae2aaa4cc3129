package document

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineType tells downstream logic where a line came from.
type LineType string

const (
	LineService   LineType = "service"
	LineInventory LineType = "inventory"
	LineAccount   LineType = "account"
)

// Field names a numeric input that can be rejected.
type Field string

const (
	FieldQuantity       Field = "quantity"
	FieldUnitPrice      Field = "unit_price"
	FieldTaxRate        Field = "tax_rate"
	FieldHeaderDiscount Field = "header_discount"
	FieldHeaderTax      Field = "header_tax_percent"
)

var hundred = decimal.NewFromInt(100)

// Rejection is raw text that could not be accepted into a numeric field.
type Rejection struct {
	Input string `json:"input"`
	Code  string `json:"code"`
}

// Lineage points a derived line back at the line it was copied from.
type Lineage struct {
	SourceDocNo  string `json:"source_doc_no"`
	SourceLineNo int    `json:"source_line_no"`
}

// LineAmounts are the computed figures of a line, filled by Recompute.
type LineAmounts struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discounted decimal.Decimal `json:"discounted"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
}

// LineItem is one row of a document.
type LineItem struct {
	ID       uuid.UUID `json:"id"`
	Sequence int       `json:"sequence"`

	ProductRef     *string         `json:"product_ref,omitempty"`
	Description    string          `json:"description"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	// TaxRateSet is false while the rate still follows the header percent.
	TaxRateSet bool     `json:"tax_rate_set"`
	Type       LineType `json:"type"`
	Lineage    *Lineage `json:"lineage,omitempty"`

	// Rejected keeps raw text the user typed into a numeric field that
	// could not be accepted, keyed by field.
	Rejected map[Field]Rejection `json:"rejected,omitempty"`

	Computed LineAmounts `json:"computed"`
}

// NewLine returns an empty service line with a fresh row id.
func NewLine() LineItem {
	return LineItem{ID: uuid.New(), Type: LineService}
}

// Subtotal is quantity × unit price. Negative inputs are rejected by
// validation and never contribute.
func (l LineItem) Subtotal() decimal.Decimal {
	if l.Quantity.IsNegative() || l.UnitPrice.IsNegative() {
		return decimal.Zero
	}
	return l.Quantity.Mul(l.UnitPrice)
}

// TaxAmount is the line's tax after the document discount factor.
func (l LineItem) TaxAmount(factor decimal.Decimal) decimal.Decimal {
	return l.Subtotal().Mul(factor).Mul(l.TaxRatePercent).Div(hundred)
}

// LineTotal is the discounted subtotal plus tax.
func (l LineItem) LineTotal(factor decimal.Decimal) decimal.Decimal {
	return l.Subtotal().Mul(factor).Add(l.TaxAmount(factor))
}

// SameItem reports whether two lines carry the same product, or the same
// description when neither has a product.
func (l LineItem) SameItem(o LineItem) bool {
	if l.ProductRef != nil || o.ProductRef != nil {
		return l.ProductRef != nil && o.ProductRef != nil && *l.ProductRef == *o.ProductRef
	}
	return normalizeName(l.Description) != "" && normalizeName(l.Description) == normalizeName(o.Description)
}

func (l LineItem) clone() LineItem {
	c := l
	if l.ProductRef != nil {
		ref := *l.ProductRef
		c.ProductRef = &ref
	}
	if l.Lineage != nil {
		lin := *l.Lineage
		c.Lineage = &lin
	}
	if l.Rejected != nil {
		c.Rejected = make(map[Field]Rejection, len(l.Rejected))
		for k, v := range l.Rejected {
			c.Rejected[k] = v
		}
	}
	return c
}
