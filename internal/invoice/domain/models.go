// Package domain contains the invoice and receipt document models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind distinguishes the two document families.
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindReceipt Kind = "receipt"
)

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	return k == KindInvoice || k == KindReceipt
}

// Label is the human-readable kind used in titles and file names.
func (k Kind) Label() string {
	if k == KindReceipt {
		return "Receipt"
	}
	return "Invoice"
}

// LineItem is one row of a document. LineTotal is derived from Quantity and UnitAmount.
type LineItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitAmount  float64 `json:"unit_amount"`
	LineTotal   float64 `json:"line_total"`
}

// IsEmpty reports whether the row carries no user input.
func (i LineItem) IsEmpty() bool {
	return i.Name == "" && i.Description == "" && i.Quantity == 0 && i.UnitAmount == 0
}

// Party is a free-form address block (company, bill-to, ship-to).
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// Meta identifies a document.
type Meta struct {
	Number    string    `json:"number"`
	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date"`
}

// Totals are always derived from the items and the tax percentage.
type Totals struct {
	SubTotal   float64 `json:"sub_total"`
	TaxAmount  float64 `json:"tax_amount"`
	GrandTotal float64 `json:"grand_total"`
}

// Document is the in-memory invoice or receipt being edited, rendered and exported.
type Document struct {
	Kind          Kind       `json:"kind"`
	Meta          Meta       `json:"meta"`
	BillTo        Party      `json:"bill_to"`
	ShipTo        Party      `json:"ship_to"`
	Company       Party      `json:"company"`
	Items         []LineItem `json:"items"`
	TaxPercentage float64    `json:"tax_percentage"`
	Notes         string     `json:"notes"`
	CurrencyCode  string     `json:"currency_code"`
	Cashier       string     `json:"cashier,omitempty"`
	LogoURL       string     `json:"logo_url,omitempty"`
	TemplateIndex int        `json:"template_index"`
	Computed      Totals     `json:"computed"`
}

// Clone returns a deep copy so callers never share the item slice.
func (d Document) Clone() Document {
	out := d
	if d.Items != nil {
		out.Items = make([]LineItem, len(d.Items))
		copy(out.Items, d.Items)
	}
	return out
}

// Record is a persisted invoice row.
type Record struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	UserID        string         `gorm:"type:text;not null;index" json:"user_id"`
	Kind          Kind           `gorm:"type:text;not null;default:'invoice'" json:"kind"`
	InvoiceNumber string         `gorm:"type:text;not null" json:"invoice_number"`
	IssueDate     time.Time      `json:"issue_date"`
	DueDate       time.Time      `json:"due_date"`
	BillTo        datatypes.JSON `gorm:"type:jsonb" json:"bill_to"`
	ShipTo        datatypes.JSON `gorm:"type:jsonb" json:"ship_to"`
	Company       datatypes.JSON `gorm:"type:jsonb" json:"company"`
	Items         datatypes.JSON `gorm:"type:jsonb" json:"items"`
	TaxPercentage float64        `gorm:"not null;default:0" json:"tax_percentage"`
	SubTotal      float64        `gorm:"not null;default:0" json:"sub_total"`
	TaxAmount     float64        `gorm:"not null;default:0" json:"tax_amount"`
	GrandTotal    float64        `gorm:"not null;default:0" json:"grand_total"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CurrencyCode  string         `gorm:"type:text" json:"currency_code"`
	Cashier       string         `gorm:"type:text" json:"cashier"`
	LogoURL       string         `gorm:"type:text" json:"logo_url"`
	TemplateName  string         `gorm:"type:text" json:"template_name"`
	TemplateIndex int            `gorm:"not null;default:1" json:"template_index"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "invoices" }
