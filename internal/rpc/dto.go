package rpc

import (
	"time"

	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/shopspring/decimal"
)

// HeaderDTO is the wire form of a document header.
type HeaderDTO struct {
	DocumentNo       string          `json:"document_no,omitempty"`
	DocumentDate     time.Time       `json:"document_date"`
	CounterpartyRef  string          `json:"counterparty_ref"`
	ContactEmail     string          `json:"contact_email,omitempty"`
	ContactPhone     string          `json:"contact_phone,omitempty"`
	HeaderDiscount   decimal.Decimal `json:"header_discount"`
	HeaderTaxPercent decimal.Decimal `json:"header_tax_percent"`
	PaymentMode      string          `json:"payment_mode"`
	SalespersonRef   string          `json:"salesperson_ref"`
	LocationRef      string          `json:"location_ref"`
	SourceDocNo      string          `json:"source_doc_no,omitempty"`
	SourceDocDate    *time.Time      `json:"source_doc_date,omitempty"`
	Notes            string          `json:"notes,omitempty"`

	GrossAmount    decimal.Decimal `json:"gross_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

// LineDTO is the wire form of a line. A nil tax rate follows the header.
type LineDTO struct {
	LineNo         int              `json:"line_no"`
	ProductRef     *string          `json:"product_ref,omitempty"`
	Description    string           `json:"description"`
	Unit           string           `json:"unit,omitempty"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	Type           string           `json:"type"`
	SourceDocNo    string           `json:"source_doc_no,omitempty"`
	SourceLineNo   int              `json:"source_line_no,omitempty"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// FromDocument converts d to its wire form. Lines are numbered from 1 in
// document order.
func FromDocument(d document.Document) (HeaderDTO, []LineDTO) {
	h := d.Header
	out := HeaderDTO{
		DocumentNo:       h.DocumentNo,
		DocumentDate:     h.DocumentDate,
		CounterpartyRef:  h.CounterpartyRef,
		ContactEmail:     h.ContactEmail,
		ContactPhone:     h.ContactPhone,
		HeaderDiscount:   h.HeaderDiscount,
		HeaderTaxPercent: h.HeaderTaxPercent,
		PaymentMode:      string(h.PaymentMode),
		SalespersonRef:   h.SalespersonRef,
		LocationRef:      h.LocationRef,
		Notes:            h.Notes,
		GrossAmount:      h.GrossAmount,
		DiscountAmount:   h.DiscountAmount,
		TaxAmount:        h.TaxAmount,
		NetAmount:        h.NetAmount,
	}
	if h.SourceDocument != nil {
		out.SourceDocNo = h.SourceDocument.DocNo
		date := h.SourceDocument.DocDate
		out.SourceDocDate = &date
	}

	lines := make([]LineDTO, 0, len(d.Lines))
	for i, l := range d.Lines {
		dto := LineDTO{
			LineNo:      i + 1,
			ProductRef:  l.ProductRef,
			Description: l.Description,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Type:        string(l.Type),
			Subtotal:    l.Computed.Subtotal,
			TaxAmount:   l.Computed.Tax,
			Total:       l.Computed.Total,
		}
		if l.TaxRateSet {
			rate := l.TaxRatePercent
			dto.TaxRatePercent = &rate
		}
		if l.Lineage != nil {
			dto.SourceDocNo = l.Lineage.SourceDocNo
			dto.SourceLineNo = l.Lineage.SourceLineNo
		}
		lines = append(lines, dto)
	}
	return out, lines
}

// ToDocument rebuilds a document of kind k from its wire form. Totals are
// recomputed rather than trusted.
func ToDocument(k document.Kind, h HeaderDTO, lines []LineDTO) document.Document {
	d := document.Document{
		Kind: k,
		Header: document.Header{
			DocumentNo:       h.DocumentNo,
			DocumentDate:     h.DocumentDate,
			CounterpartyRef:  h.CounterpartyRef,
			ContactEmail:     h.ContactEmail,
			ContactPhone:     h.ContactPhone,
			HeaderDiscount:   h.HeaderDiscount,
			HeaderTaxPercent: h.HeaderTaxPercent,
			PaymentMode:      document.PaymentMode(h.PaymentMode),
			SalespersonRef:   h.SalespersonRef,
			LocationRef:      h.LocationRef,
			Notes:            h.Notes,
		},
	}
	if h.SourceDocNo != "" {
		src := &document.SourceRef{DocNo: h.SourceDocNo}
		if h.SourceDocDate != nil {
			src.DocDate = *h.SourceDocDate
		}
		d.Header.SourceDocument = src
	}
	for _, dto := range lines {
		l := document.NewLine()
		l.Sequence = dto.LineNo
		if dto.ProductRef != nil {
			ref := *dto.ProductRef
			l.ProductRef = &ref
		}
		l.Description = dto.Description
		l.Unit = dto.Unit
		l.Quantity = dto.Quantity
		l.UnitPrice = dto.UnitPrice
		if dto.TaxRatePercent != nil {
			l.TaxRatePercent = *dto.TaxRatePercent
			l.TaxRateSet = true
		}
		if dto.Type != "" {
			l.Type = document.LineType(dto.Type)
		}
		if dto.SourceDocNo != "" {
			l.Lineage = &document.Lineage{SourceDocNo: dto.SourceDocNo, SourceLineNo: dto.SourceLineNo}
		}
		d.Lines = append(d.Lines, l)
	}
	return document.Recompute(d)
}
