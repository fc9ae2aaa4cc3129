package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-erpdocs/internal/models"
	"github.com/diewo77/go-erpdocs/internal/rpc"
	"gorm.io/gorm"
)

var ErrUnknownList = errors.New("unknown reference list")

// RefDataService serves the reference lists documents point at.
type RefDataService struct {
	db *gorm.DB
}

func NewRefDataService(db *gorm.DB) *RefDataService {
	return &RefDataService{db: db}
}

// List returns the entries of one reference list, ordered by code.
func (s *RefDataService) List(ctx context.Context, key string) ([]rpc.RefItem, error) {
	tx := s.db.WithContext(ctx).Order("code")
	items := []rpc.RefItem{}
	switch key {
	case rpc.RefProducts:
		var rows []models.Product
		if err := tx.Where("active = ?", true).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, p := range rows {
			items = append(items, rpc.RefItem{
				Code:           p.Code,
				Name:           p.Name,
				Unit:           p.Unit,
				UnitPrice:      p.UnitPrice,
				TaxRatePercent: p.TaxRate(),
				Inventory:      p.Inventory,
			})
		}
	case rpc.RefCounterparties:
		var rows []models.Counterparty
		if err := tx.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, c := range rows {
			items = append(items, rpc.RefItem{Code: c.Code, Name: c.Name})
		}
	case rpc.RefSalespeople:
		var rows []models.Salesperson
		if err := tx.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			items = append(items, rpc.RefItem{Code: r.Code, Name: r.Name})
		}
	case rpc.RefLocations:
		var rows []models.Location
		if err := tx.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			items = append(items, rpc.RefItem{Code: r.Code, Name: r.Name})
		}
	case rpc.RefUnits:
		var rows []models.Unit
		if err := tx.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			items = append(items, rpc.RefItem{Code: r.Code, Name: r.Name})
		}
	case rpc.RefAccounts:
		var rows []models.Account
		if err := tx.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			items = append(items, rpc.RefItem{Code: r.Code, Name: r.Name})
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownList, key)
	}
	return items, nil
}
