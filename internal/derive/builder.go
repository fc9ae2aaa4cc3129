// Package derive builds credit and debit notes from the lines of a prior
// document.
package derive

import (
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/google/uuid"
)

var (
	ErrNotDerivable   = errors.New("kind cannot be derived from source kind")
	ErrSourceNotSaved = errors.New("source document has no number")
)

// Builder carries selected lines of one saved source document into
// documents of the target kind.
type Builder struct {
	target document.Kind
	source document.Document
}

func NewBuilder(target document.Kind, source document.Document) (*Builder, error) {
	if !target.CanDeriveFrom(source.Kind.Code) {
		return nil, fmt.Errorf("%w: %s from %s", ErrNotDerivable, target.Code, source.Kind.Code)
	}
	if source.Header.DocumentNo == "" {
		return nil, ErrSourceNotSaved
	}
	return &Builder{target: target, source: source}, nil
}

// Selection offers the source lines for picking.
func (b *Builder) Selection() *Selection {
	return NewSelection(b.source.Lines)
}

// NewHeader returns the header a derived document starts from. It inherits
// the counterparty, salesperson, location and tax rate of the source and
// never a discount.
func (b *Builder) NewHeader(date time.Time) document.Header {
	src := b.source.Header
	return document.Header{
		DocumentDate:     date,
		CounterpartyRef:  src.CounterpartyRef,
		SalespersonRef:   src.SalespersonRef,
		LocationRef:      src.LocationRef,
		HeaderTaxPercent: src.HeaderTaxPercent,
		SourceDocument:   &document.SourceRef{DocNo: src.DocumentNo, DocDate: src.DocumentDate},
	}
}

// Start returns an empty derived document ready to receive lines.
func (b *Builder) Start(date time.Time) document.Document {
	return document.Recompute(document.Document{Kind: b.target, Header: b.NewHeader(date)})
}

// Confirm appends every selected source line to target and returns the
// result with the number of lines added. Lines whose item target already
// holds are skipped.
func (b *Builder) Confirm(target document.Document, sel *Selection) (document.Document, int, error) {
	docNo := b.source.Kind.StripPrefix(b.source.Header.DocumentNo)
	added := 0
	for _, no := range sel.Selected() {
		src, ok := b.sourceLine(no)
		if !ok {
			continue
		}
		l := document.LineItem{
			ID:             uuid.New(),
			ProductRef:     src.ProductRef,
			Description:    src.Description,
			Unit:           src.Unit,
			Quantity:       src.Quantity,
			UnitPrice:      src.UnitPrice,
			TaxRatePercent: src.TaxRatePercent,
			TaxRateSet:     src.TaxRateSet,
			Type:           document.LineInventory,
			Lineage:        &document.Lineage{SourceDocNo: docNo, SourceLineNo: no},
		}
		next, err := document.Reduce(target, document.CarryLine{Line: l})
		if errors.Is(err, document.ErrDuplicateItem) {
			continue
		}
		if err != nil {
			return target, added, err
		}
		target = next
		added++
	}
	return target, added, nil
}

func (b *Builder) sourceLine(no int) (document.LineItem, bool) {
	for i, n := range lineNumbers(b.source.Lines) {
		if n == no {
			return b.source.Lines[i], true
		}
	}
	return document.LineItem{}, false
}
