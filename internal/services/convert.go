package services

import (
	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/diewo77/go-erpdocs/internal/models"
	"github.com/shopspring/decimal"
)

// toModel maps a rounded document onto its rows. Lines are numbered from 1.
func toModel(d document.Document) models.Document {
	h := d.Header
	m := models.Document{
		Kind:             d.Kind.Code,
		DocNo:            h.DocumentNo,
		DocDate:          h.DocumentDate,
		CounterpartyRef:  h.CounterpartyRef,
		ContactEmail:     h.ContactEmail,
		ContactPhone:     h.ContactPhone,
		PaymentMode:      string(h.PaymentMode),
		SalespersonRef:   h.SalespersonRef,
		LocationRef:      h.LocationRef,
		Notes:            h.Notes,
		HeaderTaxPercent: h.HeaderTaxPercent,
		GrossAmount:      h.GrossAmount,
		DiscountAmount:   h.DiscountAmount,
		TaxAmount:        h.TaxAmount,
		NetAmount:        h.NetAmount,
	}
	// Credit kinds never discount.
	if d.Kind.DiscountApplies() {
		m.HeaderDiscount = h.HeaderDiscount
	}
	if h.SourceDocument != nil {
		m.SourceDocNo = h.SourceDocument.DocNo
		if !h.SourceDocument.DocDate.IsZero() {
			date := h.SourceDocument.DocDate
			m.SourceDocDate = &date
		}
	}
	for i, l := range d.Lines {
		row := models.DocumentLine{
			LineNo:      i + 1,
			ProductRef:  l.ProductRef,
			Description: l.Description,
			Unit:        l.Unit,
			Type:        string(l.Type),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Computed.Subtotal,
			TaxAmount:   l.Computed.Tax,
			Total:       l.Computed.Total,
		}
		if l.TaxRateSet {
			row.TaxRatePercent = decimal.NewNullDecimal(l.TaxRatePercent)
		}
		if l.Lineage != nil {
			row.SourceDocNo = l.Lineage.SourceDocNo
			row.SourceLineNo = l.Lineage.SourceLineNo
		}
		m.Lines = append(m.Lines, row)
	}
	return m
}

// fromModel rebuilds the document held by m under kind k.
func fromModel(k document.Kind, m models.Document) document.Document {
	d := document.Document{
		Kind: k,
		Header: document.Header{
			DocumentNo:       m.DocNo,
			DocumentDate:     m.DocDate,
			CounterpartyRef:  m.CounterpartyRef,
			ContactEmail:     m.ContactEmail,
			ContactPhone:     m.ContactPhone,
			HeaderDiscount:   m.HeaderDiscount,
			HeaderTaxPercent: m.HeaderTaxPercent,
			PaymentMode:      document.PaymentMode(m.PaymentMode),
			SalespersonRef:   m.SalespersonRef,
			LocationRef:      m.LocationRef,
			Notes:            m.Notes,
		},
	}
	if m.SourceDocNo != "" {
		src := &document.SourceRef{DocNo: m.SourceDocNo}
		if m.SourceDocDate != nil {
			src.DocDate = *m.SourceDocDate
		}
		d.Header.SourceDocument = src
	}
	for _, row := range m.Lines {
		l := document.NewLine()
		l.Sequence = row.LineNo
		l.ProductRef = row.ProductRef
		l.Description = row.Description
		l.Unit = row.Unit
		l.Type = document.LineType(row.Type)
		l.Quantity = row.Quantity
		l.UnitPrice = row.UnitPrice
		if row.TaxRatePercent.Valid {
			l.TaxRatePercent = row.TaxRatePercent.Decimal
			l.TaxRateSet = true
		}
		if row.SourceDocNo != "" {
			l.Lineage = &document.Lineage{SourceDocNo: row.SourceDocNo, SourceLineNo: row.SourceLineNo}
		}
		d.Lines = append(d.Lines, l)
	}
	return document.Recompute(d)
}
