package document

import "github.com/shopspring/decimal"

// Totals are the header figures derived from a document's lines.
type Totals struct {
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Factor   decimal.Decimal
	Tax      decimal.Decimal
	Net      decimal.Decimal
}

// GrossAmount sums every line's subtotal.
func GrossAmount(lines []LineItem) decimal.Decimal {
	gross := decimal.Zero
	for _, l := range lines {
		gross = gross.Add(l.Subtotal())
	}
	return gross
}

// ComputeTotals derives the header totals from scratch. Line tax rates that
// were never set follow the header percent.
func ComputeTotals(d Document) Totals {
	gross := GrossAmount(d.Lines)
	discount := AppliedDiscount(d.Header.HeaderDiscount, gross, d.Kind)
	factor := DiscountFactor(d.Header.HeaderDiscount, gross, d.Kind)

	tax := decimal.Zero
	switch d.Kind.TaxBasis {
	case TaxHeader:
		tax = gross.Sub(discount).Mul(d.Header.HeaderTaxPercent).Div(hundred)
	default:
		for _, l := range d.Lines {
			tax = tax.Add(taxedLine(l, d).TaxAmount(factor))
		}
	}

	return Totals{
		Gross:    gross,
		Discount: discount,
		Factor:   factor,
		Tax:      tax,
		Net:      gross.Sub(discount).Add(tax),
	}
}

// Recompute returns a copy of d with every line amount and header total
// recomputed. It is the only path that writes derived fields.
func Recompute(d Document) Document {
	out := d.Clone()
	t := ComputeTotals(out)
	for i := range out.Lines {
		l := out.Lines[i]
		if !l.TaxRateSet {
			l.TaxRatePercent = out.Header.HeaderTaxPercent
		}
		taxed := taxedLine(l, out)
		sub := l.Subtotal()
		l.Computed = LineAmounts{
			Subtotal:   sub,
			Discounted: sub.Mul(t.Factor),
			Tax:        taxed.TaxAmount(t.Factor),
			Total:      taxed.LineTotal(t.Factor),
		}
		out.Lines[i] = l
	}
	out.Header.GrossAmount = t.Gross
	out.Header.DiscountAmount = t.Discount
	out.Header.DiscountFactor = t.Factor
	out.Header.TaxAmount = t.Tax
	out.Header.NetAmount = t.Net
	return out
}

// Round2 rounds an amount to two decimal places, half away from zero.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// RoundForSave recomputes d at full precision, then rounds every stored
// amount to two decimals.
func RoundForSave(d Document) Document {
	out := Recompute(d)
	h := &out.Header
	h.HeaderDiscount = Round2(h.HeaderDiscount)
	h.GrossAmount = Round2(h.GrossAmount)
	h.DiscountAmount = Round2(h.DiscountAmount)
	h.TaxAmount = Round2(h.TaxAmount)
	h.NetAmount = Round2(h.NetAmount)
	for i := range out.Lines {
		c := &out.Lines[i].Computed
		c.Subtotal = Round2(c.Subtotal)
		c.Discounted = Round2(c.Discounted)
		c.Tax = Round2(c.Tax)
		c.Total = Round2(c.Total)
	}
	return out
}

// taxedLine returns l carrying the rate its tax is computed at. Header-basis
// documents tax every line at the header percent, so line amounts add up to
// the header totals. Elsewhere a line without its own rate follows the header.
func taxedLine(l LineItem, d Document) LineItem {
	if d.Kind.TaxBasis == TaxHeader || !l.TaxRateSet {
		l.TaxRatePercent = d.Header.HeaderTaxPercent
	}
	return l
}
