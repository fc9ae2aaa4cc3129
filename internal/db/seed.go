package db

import (
	"fmt"

	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/diewo77/go-erpdocs/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seed inserts baseline reference data and one number series per kind.
// Running it again changes nothing.
func Seed(conn *gorm.DB, kinds []document.Kind) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		units := []models.Unit{
			{Code: "pc", Name: "piece"},
			{Code: "h", Name: "hour"},
			{Code: "kg", Name: "kilogram"},
			{Code: "m", Name: "metre"},
		}
		for _, u := range units {
			if err := tx.Where(models.Unit{Code: u.Code}).FirstOrCreate(&u).Error; err != nil {
				return fmt.Errorf("seed unit %s: %w", u.Code, err)
			}
		}

		std := decimal.NewNullDecimal(decimal.NewFromInt(20))
		products := []models.Product{
			{Code: "P-001", Name: "Widget", Unit: "pc", UnitPrice: decimal.NewFromInt(100), TaxRatePercent: std, Inventory: true, Active: true},
			{Code: "P-002", Name: "Gadget", Unit: "pc", UnitPrice: decimal.NewFromInt(50), TaxRatePercent: std, Inventory: true, Active: true},
			{Code: "S-001", Name: "Consulting", Unit: "h", UnitPrice: decimal.NewFromInt(80), Active: true},
		}
		for _, p := range products {
			if err := tx.Where(models.Product{Code: p.Code}).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.Code, err)
			}
		}

		parties := []models.Counterparty{
			{Code: "C-001", Name: "Acme Retail", Role: models.RoleCustomer, Email: "billing@acme.test"},
			{Code: "V-001", Name: "Northwind Supply", Role: models.RoleSupplier},
		}
		for _, c := range parties {
			if err := tx.Where(models.Counterparty{Code: c.Code}).FirstOrCreate(&c).Error; err != nil {
				return fmt.Errorf("seed counterparty %s: %w", c.Code, err)
			}
		}

		for _, s := range []models.Salesperson{{Code: "S-01", Name: "Front desk"}} {
			if err := tx.Where(models.Salesperson{Code: s.Code}).FirstOrCreate(&s).Error; err != nil {
				return fmt.Errorf("seed salesperson %s: %w", s.Code, err)
			}
		}
		for _, l := range []models.Location{{Code: "MAIN", Name: "Main warehouse"}} {
			if err := tx.Where(models.Location{Code: l.Code}).FirstOrCreate(&l).Error; err != nil {
				return fmt.Errorf("seed location %s: %w", l.Code, err)
			}
		}
		accounts := []models.Account{
			{Code: "4000", Name: "Sales", Type: "income"},
			{Code: "5000", Name: "Purchases", Type: "expense"},
		}
		for _, a := range accounts {
			if err := tx.Where(models.Account{Code: a.Code}).FirstOrCreate(&a).Error; err != nil {
				return fmt.Errorf("seed account %s: %w", a.Code, err)
			}
		}

		for _, k := range kinds {
			s := models.NumberSeries{Prefix: k.Prefix}
			if err := tx.Where(models.NumberSeries{Prefix: k.Prefix}).FirstOrCreate(&s).Error; err != nil {
				return fmt.Errorf("seed series %s: %w", k.Prefix, err)
			}
		}
		return nil
	})
}
