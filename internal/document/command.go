package document

import (
	"errors"
	"strings"
	"time"

	"github.com/diewo77/go-erpdocs/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound           = errors.New("line not found")
	ErrDiscountNotApplicable  = errors.New("header discount does not apply to credit-type documents")
	ErrInvalidPaymentMode     = errors.New("invalid payment mode")
	ErrDuplicateLineID        = errors.New("duplicate line id")
	ErrDocumentNoNotAvailable = errors.New("document number cannot be changed")
	ErrDuplicateItem          = errors.New("item already present")
)

// Command is one edit to a document. Every mutation goes through Reduce,
// so totals can never be left stale.
type Command interface {
	apply(d *Document) error
}

// Reduce applies cmd to a copy of d and recomputes it. On error d is
// returned unchanged.
func Reduce(d Document, cmd Command) (Document, error) {
	next := d.Clone()
	if err := cmd.apply(&next); err != nil {
		return d, err
	}
	return Recompute(next), nil
}

// Product is what a line needs to know about a catalog product.
type Product struct {
	Code           string
	Name           string
	Unit           string
	UnitPrice      decimal.Decimal
	TaxRatePercent *decimal.Decimal
	Inventory      bool
}

type (
	// AddLine appends a blank line. A zero ID gets a fresh one.
	AddLine struct{ ID uuid.UUID }
	// CarryLine appends a line copied from another document, unless the
	// document already holds the same item.
	CarryLine  struct{ Line LineItem }
	RemoveLine struct{ ID uuid.UUID }
	// SetProduct fills a line from a catalog product. The tax rate defaults
	// from the product, or keeps following the header when the product has none.
	SetProduct struct {
		ID      uuid.UUID
		Product Product
	}
	SetDescription struct {
		ID    uuid.UUID
		Value string
	}
	SetUnit struct {
		ID    uuid.UUID
		Value string
	}
	SetLineType struct {
		ID   uuid.UUID
		Type LineType
	}
	// SetQuantity, SetUnitPrice and SetTaxRate carry the raw text typed by
	// the user. Unacceptable text is kept as rejected input.
	SetQuantity struct {
		ID    uuid.UUID
		Input string
	}
	SetUnitPrice struct {
		ID    uuid.UUID
		Input string
	}
	SetTaxRate struct {
		ID    uuid.UUID
		Input string
	}
	SetHeaderDiscount struct{ Input string }
	SetHeaderTax      struct{ Input string }
	SetCounterparty   struct{ Ref string }
	SetSalesperson    struct{ Ref string }
	SetLocation       struct{ Ref string }
	SetPaymentMode    struct{ Mode PaymentMode }
	SetDocumentDate   struct{ Date time.Time }
	SetDocumentNo     struct{ Value string }
	SetContact        struct{ Email, Phone string }
	SetNotes          struct{ Value string }
)

func (c AddLine) apply(d *Document) error {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	} else if d.LineIndex(id) >= 0 {
		return ErrDuplicateLineID
	}
	l := NewLine()
	l.ID = id
	d.Lines = append(d.Lines, l)
	return nil
}

func (c CarryLine) apply(d *Document) error {
	for _, l := range d.Lines {
		if l.SameItem(c.Line) {
			return ErrDuplicateItem
		}
	}
	l := c.Line.clone()
	if l.ID == uuid.Nil || d.LineIndex(l.ID) >= 0 {
		l.ID = uuid.New()
	}
	l.Computed = LineAmounts{}
	d.Lines = append(d.Lines, l)
	return nil
}

func (c RemoveLine) apply(d *Document) error {
	i := d.LineIndex(c.ID)
	if i < 0 {
		return ErrLineNotFound
	}
	d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
	return nil
}

func (c SetProduct) apply(d *Document) error {
	return withLine(d, c.ID, func(l *LineItem) {
		code := c.Product.Code
		l.ProductRef = &code
		l.Description = c.Product.Name
		l.Unit = c.Product.Unit
		l.UnitPrice = c.Product.UnitPrice
		delete(l.Rejected, FieldUnitPrice)
		if c.Product.TaxRatePercent != nil {
			l.TaxRatePercent = *c.Product.TaxRatePercent
			l.TaxRateSet = true
			delete(l.Rejected, FieldTaxRate)
		} else {
			l.TaxRateSet = false
		}
		if c.Product.Inventory {
			l.Type = LineInventory
		}
	})
}

func (c SetDescription) apply(d *Document) error {
	return withLine(d, c.ID, func(l *LineItem) { l.Description = c.Value })
}

func (c SetUnit) apply(d *Document) error {
	return withLine(d, c.ID, func(l *LineItem) { l.Unit = strings.TrimSpace(c.Value) })
}

func (c SetLineType) apply(d *Document) error {
	return withLine(d, c.ID, func(l *LineItem) { l.Type = c.Type })
}

func (c SetQuantity) apply(d *Document) error {
	return withLine(d, c.ID, func(l *LineItem) {
		l.Quantity = acceptAmount(c.Input, FieldQuantity, &l.Rejected)
	})
}

func (c SetUnitPrice) apply(d *Document) error {
	return withLine(d, c.ID, func(l *LineItem) {
		l.UnitPrice = acceptAmount(c.Input, FieldUnitPrice, &l.Rejected)
	})
}

func (c SetTaxRate) apply(d *Document) error {
	return withLine(d, c.ID, func(l *LineItem) {
		if strings.TrimSpace(c.Input) == "" {
			delete(l.Rejected, FieldTaxRate)
			l.TaxRateSet = false
			return
		}
		l.TaxRatePercent = acceptAmount(c.Input, FieldTaxRate, &l.Rejected)
		l.TaxRateSet = true
	})
}

func (c SetHeaderDiscount) apply(d *Document) error {
	if !d.Kind.DiscountApplies() {
		return ErrDiscountNotApplicable
	}
	d.Header.HeaderDiscount = acceptAmount(c.Input, FieldHeaderDiscount, &d.Header.Rejected)
	return nil
}

func (c SetHeaderTax) apply(d *Document) error {
	d.Header.HeaderTaxPercent = acceptAmount(c.Input, FieldHeaderTax, &d.Header.Rejected)
	return nil
}

func (c SetCounterparty) apply(d *Document) error {
	d.Header.CounterpartyRef = strings.TrimSpace(c.Ref)
	return nil
}

func (c SetSalesperson) apply(d *Document) error {
	d.Header.SalespersonRef = strings.TrimSpace(c.Ref)
	return nil
}

func (c SetLocation) apply(d *Document) error {
	d.Header.LocationRef = strings.TrimSpace(c.Ref)
	return nil
}

func (c SetPaymentMode) apply(d *Document) error {
	if c.Mode != "" && !c.Mode.Valid() {
		return ErrInvalidPaymentMode
	}
	d.Header.PaymentMode = c.Mode
	return nil
}

func (c SetDocumentDate) apply(d *Document) error {
	d.Header.DocumentDate = c.Date
	return nil
}

func (c SetDocumentNo) apply(d *Document) error {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return ErrDocumentNoNotAvailable
	}
	d.Header.DocumentNo = v
	return nil
}

func (c SetContact) apply(d *Document) error {
	d.Header.ContactEmail = strings.TrimSpace(c.Email)
	d.Header.ContactPhone = strings.TrimSpace(c.Phone)
	return nil
}

func (c SetNotes) apply(d *Document) error {
	d.Header.Notes = c.Value
	return nil
}

func withLine(d *Document, id uuid.UUID, f func(l *LineItem)) error {
	i := d.LineIndex(id)
	if i < 0 {
		return ErrLineNotFound
	}
	f(&d.Lines[i])
	return nil
}

// acceptAmount parses user text. Empty text is a missing value (zero).
// Text that is not a number, or is negative, is recorded in rejected and
// contributes zero until corrected.
func acceptAmount(input string, field Field, rejected *map[Field]Rejection) decimal.Decimal {
	s := strings.TrimSpace(input)
	if s == "" {
		delete(*rejected, field)
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	code := ""
	switch {
	case err != nil:
		code = validation.CodeNotANumber
	case v.IsNegative():
		code = validation.CodeNegative
	}
	if code != "" {
		if *rejected == nil {
			*rejected = map[Field]Rejection{}
		}
		(*rejected)[field] = Rejection{Input: input, Code: code}
		return decimal.Zero
	}
	delete(*rejected, field)
	return v
}
