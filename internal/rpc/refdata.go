package rpc

import (
	"context"

	"github.com/shopspring/decimal"
)

// Reference list keys.
const (
	RefProducts       = "products"
	RefCounterparties = "counterparties"
	RefSalespeople    = "salespeople"
	RefLocations      = "locations"
	RefUnits          = "units"
	RefAccounts       = "accounts"
)

// RefItem is one entry of a reference list. Price, tax and inventory only
// apply to products.
type RefItem struct {
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	Unit           string           `json:"unit,omitempty"`
	UnitPrice      decimal.Decimal  `json:"unit_price,omitempty"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	Inventory      bool             `json:"inventory,omitempty"`
}

// RefData lists reference data through a Caller.
type RefData struct {
	Caller Caller
}

func (c RefData) List(ctx context.Context, key string) ([]RefItem, error) {
	req := Request{Key: key, Type: TypeList}
	resp, err := do(ctx, c.Caller, req)
	if err != nil {
		return nil, err
	}
	items := []RefItem{}
	if len(resp.Data) == 0 {
		return items, nil
	}
	if err := decode(resp, req, &items); err != nil {
		return nil, err
	}
	return items, nil
}
