// Package document holds the transactional document model shared by every
// entry screen (invoice, purchase order, credit note, ...) and the pure
// computation that keeps line and header totals consistent.
package document

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMode is how the counterparty settles the document.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "CASH"
	PaymentCheque PaymentMode = "CHEQUE"
	PaymentTT     PaymentMode = "TT"
	PaymentOther  PaymentMode = "OTHER"
)

// Valid reports whether m is one of the known payment modes.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheque, PaymentTT, PaymentOther:
		return true
	}
	return false
}

// SourceRef identifies the document a derived document was built from.
type SourceRef struct {
	DocNo   string    `json:"doc_no"`
	DocDate time.Time `json:"doc_date"`
}

// Header holds document-level fields. Gross, discount, tax and net amounts
// are derived by Recompute and never edited directly.
type Header struct {
	DocumentNo       string          `json:"document_no"`
	DocumentDate     time.Time       `json:"document_date"`
	CounterpartyRef  string          `json:"counterparty_ref"`
	ContactEmail     string          `json:"contact_email,omitempty"`
	ContactPhone     string          `json:"contact_phone,omitempty"`
	HeaderDiscount   decimal.Decimal `json:"header_discount"`
	HeaderTaxPercent decimal.Decimal `json:"header_tax_percent"`
	PaymentMode      PaymentMode     `json:"payment_mode"`
	SalespersonRef   string          `json:"salesperson_ref"`
	LocationRef      string          `json:"location_ref"`
	SourceDocument   *SourceRef      `json:"source_document,omitempty"`
	Notes            string          `json:"notes,omitempty"`

	Rejected map[Field]Rejection `json:"rejected,omitempty"`

	GrossAmount    decimal.Decimal `json:"gross_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountFactor decimal.Decimal `json:"discount_factor"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

// Document is a header plus its ordered lines, interpreted under Kind.
type Document struct {
	Kind   Kind       `json:"kind"`
	Header Header     `json:"header"`
	Lines  []LineItem `json:"lines"`
}

// New starts a blank document of kind k. Kinds that do not allow an empty
// draft start with one blank line.
func New(k Kind, date time.Time) Document {
	d := Document{Kind: k, Header: Header{DocumentDate: date}}
	if !k.AllowEmptyDraft {
		d.Lines = []LineItem{NewLine()}
	}
	return Recompute(d)
}

// Clone returns a deep copy, so a reducer step never aliases its input.
func (d Document) Clone() Document {
	c := d
	c.Kind.DerivesFrom = append([]string(nil), d.Kind.DerivesFrom...)
	if d.Header.SourceDocument != nil {
		src := *d.Header.SourceDocument
		c.Header.SourceDocument = &src
	}
	if d.Header.Rejected != nil {
		c.Header.Rejected = make(map[Field]Rejection, len(d.Header.Rejected))
		for k, v := range d.Header.Rejected {
			c.Header.Rejected[k] = v
		}
	}
	if d.Lines != nil {
		c.Lines = make([]LineItem, len(d.Lines))
		for i, l := range d.Lines {
			c.Lines[i] = l.clone()
		}
	}
	return c
}

// LineIndex returns the position of the line with the given row id, or -1.
func (d Document) LineIndex(id uuid.UUID) int {
	for i, l := range d.Lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
