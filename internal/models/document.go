package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Document is a saved transactional document of any kind. Kind plus DocNo
// is unique.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind    string    `gorm:"size:50;not null;uniqueIndex:idx_documents_kind_no" json:"kind"`
	DocNo   string    `gorm:"size:50;not null;uniqueIndex:idx_documents_kind_no" json:"doc_no"`
	DocDate time.Time `gorm:"not null" json:"doc_date"`

	CounterpartyRef string `gorm:"size:50;not null;index" json:"counterparty_ref"`
	ContactEmail    string `gorm:"size:255" json:"contact_email,omitempty"`
	ContactPhone    string `gorm:"size:50" json:"contact_phone,omitempty"`
	PaymentMode     string `gorm:"size:20;not null" json:"payment_mode"`
	SalespersonRef  string `gorm:"size:50" json:"salesperson_ref"`
	LocationRef     string `gorm:"size:50" json:"location_ref"`
	Notes           string `gorm:"type:text" json:"notes,omitempty"`

	// Set on credit and debit notes built from a prior document.
	SourceDocNo   string     `gorm:"size:50;index" json:"source_doc_no,omitempty"`
	SourceDocDate *time.Time `json:"source_doc_date,omitempty"`

	HeaderDiscount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"header_discount"`
	HeaderTaxPercent decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"header_tax_percent"`
	GrossAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"gross_amount"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"discount_amount"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_amount"`
	NetAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"net_amount"`

	Lines []DocumentLine `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

// DocumentLine is one persisted line. LineNo is the sequence number derived
// lines point back at.
type DocumentLine struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	DocumentID uint `gorm:"index;not null" json:"document_id"`
	LineNo     int  `gorm:"not null" json:"line_no"`

	ProductRef  *string `gorm:"size:50;index" json:"product_ref,omitempty"`
	Description string  `gorm:"size:500;not null" json:"description"`
	Unit        string  `gorm:"size:20" json:"unit,omitempty"`
	Type        string  `gorm:"size:20;not null;default:'service'" json:"type"`

	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	// NULL while the line follows the header tax percent.
	TaxRatePercent decimal.NullDecimal `gorm:"type:decimal(9,4)" json:"tax_rate_percent"`

	SourceDocNo  string `gorm:"size:50;index" json:"source_doc_no,omitempty"`
	SourceLineNo int    `json:"source_line_no,omitempty"`

	Subtotal  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_amount"`
	Total     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total"`
}

// NumberSeries hands out document numbers per prefix.
type NumberSeries struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Prefix     string `gorm:"size:10;uniqueIndex;not null" json:"prefix"`
	LastNo     int64  `gorm:"not null;default:0" json:"last_no"`
	IsEditable bool   `gorm:"not null;default:false" json:"is_editable"`
}

func (NumberSeries) TableName() string { return "number_series" }

// Edit handshake actions and outcomes.
const (
	EditActionValidate = "validate"
	EditActionConfirm  = "confirm"

	EditOutcomeOK       = "ok"
	EditOutcomeRejected = "rejected"
)

// EditLog records every edit handshake step against a saved document.
type EditLog struct {
	ID           uint           `gorm:"primaryKey"`
	CreatedAt    time.Time      `gorm:"index"`
	Kind         string         `gorm:"size:50;not null"`
	DocNo        string         `gorm:"size:50;not null;index"`
	Action       string         `gorm:"size:20;not null"`
	Outcome      string         `gorm:"size:20;not null"`
	MessageTypes datatypes.JSON `gorm:"type:json"`
	Message      string         `gorm:"size:500"`
}
