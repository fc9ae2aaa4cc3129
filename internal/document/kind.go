package document

import (
	"errors"
	"fmt"
	"strings"
)

// TaxBasis selects how a document's tax total is derived.
type TaxBasis string

const (
	// TaxPerLine sums each line's own tax.
	TaxPerLine TaxBasis = "line"
	// TaxHeader applies the header tax percent to the discounted gross.
	TaxHeader TaxBasis = "header"
)

// Kind parametrizes the single document engine for one document type
// (invoice, purchase order, credit note, ...).
type Kind struct {
	Code            string   `yaml:"code" json:"code"`
	Name            string   `yaml:"name" json:"name"`
	Key             string   `yaml:"key" json:"key"`
	Prefix          string   `yaml:"prefix" json:"prefix"`
	Credit          bool     `yaml:"credit" json:"credit"`
	TaxBasis        TaxBasis `yaml:"tax_basis" json:"tax_basis"`
	AllowEmptyDraft bool     `yaml:"allow_empty_draft" json:"allow_empty_draft"`
	Counterparty    string   `yaml:"counterparty" json:"counterparty"`
	DerivesFrom     []string `yaml:"derives_from" json:"derives_from,omitempty"`
}

// DiscountApplies reports whether a header discount takes part in totals.
// Credit-type documents never discount.
func (k Kind) DiscountApplies() bool { return !k.Credit }

// FormatNumber renders a series number as a document number, e.g. INV-000042.
func (k Kind) FormatNumber(n int64) string {
	return fmt.Sprintf("%s-%06d", k.Prefix, n)
}

// StripPrefix removes this kind's numbering prefix from a document number.
func (k Kind) StripPrefix(docNo string) string {
	if k.Prefix == "" {
		return docNo
	}
	if s, ok := strings.CutPrefix(docNo, k.Prefix+"-"); ok {
		return s
	}
	return strings.TrimPrefix(docNo, k.Prefix)
}

// CanDeriveFrom reports whether documents of this kind may be built from source.
func (k Kind) CanDeriveFrom(source string) bool {
	for _, s := range k.DerivesFrom {
		if s == source {
			return true
		}
	}
	return false
}

var (
	ErrUnknownKind   = errors.New("unknown document kind")
	ErrDuplicateKind = errors.New("duplicate document kind")
)

// Registry holds the configured kinds, addressable by code or by remote key.
type Registry struct {
	byCode map[string]Kind
	byKey  map[string]string
	order  []string
}

// NewRegistry validates kinds and indexes them. A kind without a tax basis
// defaults to TaxPerLine.
func NewRegistry(kinds ...Kind) (*Registry, error) {
	r := &Registry{byCode: map[string]Kind{}, byKey: map[string]string{}}
	for _, k := range kinds {
		if k.Code == "" || k.Key == "" || k.Prefix == "" {
			return nil, fmt.Errorf("kind %q: code, key and prefix are required", k.Code)
		}
		if k.TaxBasis == "" {
			k.TaxBasis = TaxPerLine
		}
		if k.TaxBasis != TaxPerLine && k.TaxBasis != TaxHeader {
			return nil, fmt.Errorf("kind %q: invalid tax basis %q", k.Code, k.TaxBasis)
		}
		if _, ok := r.byCode[k.Code]; ok {
			return nil, fmt.Errorf("%w: code %s", ErrDuplicateKind, k.Code)
		}
		if _, ok := r.byKey[k.Key]; ok {
			return nil, fmt.Errorf("%w: key %s", ErrDuplicateKind, k.Key)
		}
		r.byCode[k.Code] = k
		r.byKey[k.Key] = k.Code
		r.order = append(r.order, k.Code)
	}
	for _, k := range r.byCode {
		for _, src := range k.DerivesFrom {
			if _, ok := r.byCode[src]; !ok {
				return nil, fmt.Errorf("kind %q derives from %w %q", k.Code, ErrUnknownKind, src)
			}
		}
	}
	return r, nil
}

func (r *Registry) Lookup(code string) (Kind, bool) {
	k, ok := r.byCode[code]
	return k, ok
}

// ByKey resolves the kind addressed by a remote CRUD key.
func (r *Registry) ByKey(key string) (Kind, bool) {
	code, ok := r.byKey[key]
	if !ok {
		return Kind{}, false
	}
	return r.byCode[code], true
}

// Kinds returns every kind in configuration order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, r.byCode[c])
	}
	return out
}
