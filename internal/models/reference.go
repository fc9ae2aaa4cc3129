package models

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog item that can be picked on a line. A NULL tax rate
// means lines follow the document's header rate.
type Product struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	Code           string              `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name           string              `gorm:"size:255;not null" json:"name"`
	Unit           string              `gorm:"size:20" json:"unit"`
	UnitPrice      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
	TaxRatePercent decimal.NullDecimal `gorm:"type:decimal(9,4)" json:"tax_rate_percent"`
	Inventory      bool                `gorm:"not null;default:false" json:"inventory"`
	Active         bool                `gorm:"not null;default:true" json:"active"`
}

// Counterparty roles.
const (
	RoleCustomer = "customer"
	RoleSupplier = "supplier"
)

type Counterparty struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Code  string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name  string `gorm:"size:255;not null" json:"name"`
	Role  string `gorm:"size:20;not null;index" json:"role"`
	Email string `gorm:"size:255" json:"email,omitempty"`
	Phone string `gorm:"size:50" json:"phone,omitempty"`
}

type Salesperson struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Salesperson) TableName() string { return "salespeople" }

type Location struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`
}

type Unit struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// Account is an entry of the chart of accounts, used by account-type lines.
type Account struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`
	Type string `gorm:"size:20" json:"type"`
}

// TaxRate returns the product's own rate, or nil when it has none.
func (p Product) TaxRate() *decimal.Decimal {
	if !p.TaxRatePercent.Valid {
		return nil
	}
	r := p.TaxRatePercent.Decimal
	return &r
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Product{}, &Counterparty{}, &Salesperson{}, &Location{}, &Unit{}, &Account{},
		&NumberSeries{}, &Document{}, &DocumentLine{}, &EditLog{},
	}
}
