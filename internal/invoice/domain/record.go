package domain

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

// DecodeParty reads a party blob. Blank or malformed blobs yield an empty party.
func DecodeParty(raw datatypes.JSON) Party {
	var p Party
	if len(raw) == 0 {
		return p
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Party{}
	}
	p.Name = strings.TrimSpace(p.Name)
	return p
}

// DecodeItems reads an item array blob, dropping nothing and defaulting absent numbers to zero.
func DecodeItems(raw datatypes.JSON) []LineItem {
	if len(raw) == 0 {
		return []LineItem{}
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return []LineItem{}
	}
	if items == nil {
		return []LineItem{}
	}
	return items
}

func encode(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}

// ToRecord copies doc into a persistable row. ID, UserID and timestamps are left to the caller.
func ToRecord(doc Document, templateName string) Record {
	items := doc.Items
	if items == nil {
		items = []LineItem{}
	}
	kind := doc.Kind
	if !kind.Valid() {
		kind = KindInvoice
	}
	return Record{
		Kind:          kind,
		InvoiceNumber: doc.Meta.Number,
		IssueDate:     doc.Meta.IssueDate,
		DueDate:       doc.Meta.DueDate,
		BillTo:        encode(doc.BillTo),
		ShipTo:        encode(doc.ShipTo),
		Company:       encode(doc.Company),
		Items:         encode(items),
		TaxPercentage: doc.TaxPercentage,
		SubTotal:      doc.Computed.SubTotal,
		TaxAmount:     doc.Computed.TaxAmount,
		GrandTotal:    doc.Computed.GrandTotal,
		Notes:         doc.Notes,
		CurrencyCode:  doc.CurrencyCode,
		Cashier:       doc.Cashier,
		LogoURL:       doc.LogoURL,
		TemplateName:  templateName,
		TemplateIndex: doc.TemplateIndex,
	}
}

// FromRecord rebuilds a document from a persisted row. Computed totals are
// copied as stored; callers recompute before rendering.
func FromRecord(r Record) Document {
	kind := r.Kind
	if !kind.Valid() {
		kind = KindInvoice
	}
	tmpl := r.TemplateIndex
	if tmpl <= 0 {
		tmpl = 1
	}
	return Document{
		Kind: kind,
		Meta: Meta{
			Number:    r.InvoiceNumber,
			IssueDate: r.IssueDate,
			DueDate:   r.DueDate,
		},
		BillTo:        DecodeParty(r.BillTo),
		ShipTo:        DecodeParty(r.ShipTo),
		Company:       DecodeParty(r.Company),
		Items:         DecodeItems(r.Items),
		TaxPercentage: r.TaxPercentage,
		Notes:         r.Notes,
		CurrencyCode:  r.CurrencyCode,
		Cashier:       r.Cashier,
		LogoURL:       r.LogoURL,
		TemplateIndex: tmpl,
		Computed: Totals{
			SubTotal:   r.SubTotal,
			TaxAmount:  r.TaxAmount,
			GrandTotal: r.GrandTotal,
		},
	}
}
