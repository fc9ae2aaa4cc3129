package refdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/diewo77/go-erpdocs/internal/lifecycle"
	"github.com/diewo77/go-erpdocs/internal/rpc"
)

var ErrUnknownProduct = errors.New("unknown product")

// Catalog resolves products for the line product picker.
type Catalog struct {
	Lister Lister
}

var _ lifecycle.ProductCatalog = Catalog{}

func (c Catalog) Product(ctx context.Context, code string) (document.Product, error) {
	items, err := c.Lister.List(ctx, rpc.RefProducts)
	if err != nil {
		return document.Product{}, err
	}
	for _, it := range items {
		if it.Code == code {
			return document.Product{
				Code:           it.Code,
				Name:           it.Name,
				Unit:           it.Unit,
				UnitPrice:      it.UnitPrice,
				TaxRatePercent: it.TaxRatePercent,
				Inventory:      it.Inventory,
			}, nil
		}
	}
	return document.Product{}, fmt.Errorf("%w: %s", ErrUnknownProduct, code)
}
