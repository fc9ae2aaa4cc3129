package document

import (
	"testing"

	"github.com/shopspring/decimal"
)

func widgetAndGadget() []LineItem {
	return []LineItem{line("2", "100", "5"), line("1", "50", "5")}
}

func TestTotals_NoDiscount(t *testing.T) {
	d := Recompute(Document{Kind: invoiceKind, Lines: widgetAndGadget()})

	assertDec(t, "gross", d.Header.GrossAmount, "250")
	assertDec(t, "factor", d.Header.DiscountFactor, "1")
	assertDec(t, "tax", d.Header.TaxAmount, "12.5")
	assertDec(t, "net", d.Header.NetAmount, "262.5")
}

func TestTotals_HeaderDiscountApportioned(t *testing.T) {
	a := Recompute(Document{Kind: invoiceKind, Lines: widgetAndGadget()})
	d := Document{Kind: invoiceKind, Lines: widgetAndGadget()}
	d.Header.HeaderDiscount = dec("50")
	d = Recompute(d)

	assertDec(t, "gross", d.Header.GrossAmount, "250")
	assertDec(t, "factor", d.Header.DiscountFactor, "0.8")
	assertDec(t, "line 0 discounted", d.Lines[0].Computed.Discounted, "160")
	assertDec(t, "line 1 discounted", d.Lines[1].Computed.Discounted, "40")
	assertDec(t, "tax", d.Header.TaxAmount, "10")
	assertDec(t, "net", d.Header.NetAmount, "210")
	if !d.Header.NetAmount.LessThan(a.Header.NetAmount) {
		t.Errorf("discounted net %s should be below undiscounted net %s", d.Header.NetAmount, a.Header.NetAmount)
	}
}

func TestTotals_ZeroGrossDoesNotDivide(t *testing.T) {
	d := Document{Kind: invoiceKind, Lines: []LineItem{line("0", "100", "5"), line("0", "50", "5")}}
	d.Header.HeaderDiscount = dec("50")
	d = Recompute(d)

	assertDec(t, "factor", d.Header.DiscountFactor, "1")
	assertDec(t, "discount", d.Header.DiscountAmount, "0")
	assertDec(t, "net", d.Header.NetAmount, "0")
	if d.Header.NetAmount.IsNegative() {
		t.Errorf("net must not be negative, got %s", d.Header.NetAmount)
	}
}

func TestDiscountFactor_Law(t *testing.T) {
	gross := dec("250")
	if f := DiscountFactor(decimal.Zero, gross, invoiceKind); !f.Equal(dec("1")) {
		t.Errorf("DiscountFactor(0) = %s, want 1", f)
	}
	if f := DiscountFactor(dec("50"), decimal.Zero, invoiceKind); !f.Equal(dec("1")) {
		t.Errorf("DiscountFactor(gross=0) = %s, want 1", f)
	}
	prev := dec("1.0001")
	for _, d := range []string{"0", "1", "10", "50", "125", "249", "250"} {
		f := DiscountFactor(dec(d), gross, invoiceKind)
		if !f.LessThan(prev) {
			t.Errorf("factor for discount %s = %s, not below previous %s", d, f, prev)
		}
		prev = f
	}
	if f := DiscountFactor(dec("400"), gross, invoiceKind); !f.Equal(decimal.Zero) {
		t.Errorf("factor for discount above gross = %s, want 0", f)
	}
}

func TestDiscountFactor_CreditKindsExempt(t *testing.T) {
	for _, discount := range []string{"0", "50", "250", "1000"} {
		for _, k := range []Kind{creditKind, debitKind} {
			if f := DiscountFactor(dec(discount), dec("250"), k); !f.Equal(dec("1")) {
				t.Errorf("%s factor with discount %s = %s, want 1", k.Code, discount, f)
			}
		}
	}

	d := Document{Kind: creditKind, Lines: widgetAndGadget()}
	d.Header.HeaderDiscount = dec("50")
	d = Recompute(d)
	assertDec(t, "credit net", d.Header.NetAmount, "262.5")
}

func TestComputeTotals_HeaderBasis(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		discount string
		wantTax  string
		wantNet  string
	}{
		{"standard with discount", orderKind, "50", "20", "220"},
		{"standard without discount", orderKind, "0", "25", "275"},
		{"credit ignores discount", debitKind, "50", "25", "275"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []LineItem{line("2", "100", "0"), line("1", "50", "0")}
			for i := range lines {
				lines[i].TaxRateSet = false
			}
			d := Document{Kind: tt.kind, Lines: lines}
			d.Header.HeaderDiscount = dec(tt.discount)
			d.Header.HeaderTaxPercent = dec("10")
			got := ComputeTotals(d)
			assertDec(t, "tax", got.Tax, tt.wantTax)
			assertDec(t, "net", got.Net, tt.wantNet)

			// Lines following the header rate add up to the header figure.
			r := Recompute(d)
			sum := decimal.Zero
			for _, l := range r.Lines {
				sum = sum.Add(l.Computed.Tax)
			}
			assertDec(t, "sum of line tax", sum, tt.wantTax)
		})
	}
}

func TestRecompute_LineAmountsAddUpToHeader(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		percent string
		lines   func() []LineItem
		wantTax string
		wantNet string
	}{
		{"line basis", invoiceKind, "10", mixedRates, "39.6", "259.6"},
		{"line basis credit", creditKind, "10", mixedRates, "45", "295"},
		{"header basis", orderKind, "10", mixedRates, "22", "242"},
		{"header basis credit", debitKind, "10", mixedRates, "25", "275"},
		{"header basis credit ignores own line rate", debitKind, "0", func() []LineItem {
			return []LineItem{line("2", "100", "20")}
		}, "0", "200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Document{Kind: tt.kind, Lines: tt.lines()}
			d.Header.HeaderDiscount = dec("30")
			d.Header.HeaderTaxPercent = dec(tt.percent)
			d = Recompute(d)
			assertDec(t, "header tax", d.Header.TaxAmount, tt.wantTax)
			assertDec(t, "header net", d.Header.NetAmount, tt.wantNet)

			tax, total := decimal.Zero, decimal.Zero
			for _, l := range d.Lines {
				tax = tax.Add(l.Computed.Tax)
				total = total.Add(l.Computed.Total)
			}
			assertDec(t, "sum of line tax", tax, tt.wantTax)
			assertDec(t, "sum of line totals", total, tt.wantNet)
		})
	}

	// The line keeps its own rate even when the header decides the tax.
	d := Document{Kind: orderKind, Lines: mixedRates()}
	d.Header.HeaderTaxPercent = dec("10")
	d = Recompute(d)
	assertDec(t, "own rate", d.Lines[0].TaxRatePercent, "20")
	assertDec(t, "inherited rate", d.Lines[1].TaxRatePercent, "10")
}

// mixedRates is one line with its own 20% rate and one following the header.
func mixedRates() []LineItem {
	unset := line("1", "50", "0")
	unset.TaxRateSet = false
	return []LineItem{line("2", "100", "20"), unset}
}

func TestRecompute_LineInvariants(t *testing.T) {
	d := Document{Kind: invoiceKind, Lines: []LineItem{line("3", "19.99", "20"), line("7", "0.35", "5.5"), line("1", "1000", "0")}}
	d.Header.HeaderDiscount = dec("123.45")
	d = Recompute(d)

	gross := decimal.Zero
	for i, l := range d.Lines {
		gross = gross.Add(l.Computed.Subtotal)
		want := l.Computed.Subtotal.Mul(d.Header.DiscountFactor).Add(l.Computed.Tax)
		if !l.Computed.Total.Equal(want) {
			t.Errorf("line %d total %s, want subtotal*factor+tax = %s", i, l.Computed.Total, want)
		}
	}
	if !gross.Equal(d.Header.GrossAmount) {
		t.Errorf("gross %s != sum of subtotals %s", d.Header.GrossAmount, gross)
	}
}

func TestRoundForSave(t *testing.T) {
	d := Document{Kind: invoiceKind, Lines: []LineItem{line("3", "0.335", "5.5")}}
	d = RoundForSave(d)
	assertDec(t, "gross", d.Header.GrossAmount, "1.01")
	assertDec(t, "line tax", d.Lines[0].Computed.Tax, "0.06")
	assertDec(t, "net", d.Header.NetAmount, "1.06")
	assertDec(t, "round half away from zero", Round2(dec("2.345")), "2.35")
}
