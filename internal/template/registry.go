// Package template is the catalog of document layouts.
package template

import (
	"fmt"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/invoice/view"
	"github.com/smallbiznis/invoicekit/internal/layout"
	"github.com/smallbiznis/invoicekit/internal/template/invoice"
	"github.com/smallbiznis/invoicekit/internal/template/receipt"
	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
)

// RenderFunc maps printable fields onto a layout tree. It must be pure.
type RenderFunc func(view.Printable) *layout.Node

type Descriptor struct {
	Index  int
	Slug   string
	Name   string
	Render RenderFunc
}

// Registry is an ordered, immutable list of layouts for one document kind.
type Registry struct {
	family      domain.Kind
	width       int
	mono        bool
	descriptors []Descriptor
}

type entry struct {
	name   string
	render RenderFunc
}

func newRegistry(family domain.Kind, width int, mono bool, entries ...entry) *Registry {
	descriptors := make([]Descriptor, len(entries))
	for i, e := range entries {
		descriptors[i] = Descriptor{Index: i, Slug: slug.Make(e.name), Name: e.name, Render: e.render}
	}
	return &Registry{family: family, width: width, mono: mono, descriptors: descriptors}
}

// NewInvoiceRegistry returns the A4 invoice layouts.
func NewInvoiceRegistry() *Registry {
	return newRegistry(domain.KindInvoice, layout.WidthA4, false,
		entry{"Classic", invoice.Classic},
		entry{"Modern", invoice.Modern},
		entry{"Minimal", invoice.Minimal},
		entry{"Corporate", invoice.Corporate},
		entry{"Compact", invoice.Compact},
	)
}

// NewReceiptRegistry returns the 80mm receipt layouts.
func NewReceiptRegistry() *Registry {
	return newRegistry(domain.KindReceipt, layout.WidthReceipt80, true,
		entry{"Thermal", receipt.Thermal},
		entry{"Thermal QR", receipt.ThermalQR},
		entry{"Itemised", receipt.Itemised},
	)
}

func (r *Registry) Family() domain.Kind { return r.family }

func (r *Registry) Len() int { return len(r.descriptors) }

// Lookup resolves a 1-based selection to its descriptor.
func (r *Registry) Lookup(selection int) (Descriptor, error) {
	slot := selection - 1
	if slot < 0 || slot >= len(r.descriptors) {
		return Descriptor{}, fmt.Errorf("%w: %s template %d", domain.ErrTemplateNotFound, r.family, selection)
	}
	return r.descriptors[slot], nil
}

// Render builds the layout for selection from doc and branding.
func (r *Registry) Render(selection int, doc domain.Document, branding settingsdomain.Branding) (layout.Document, error) {
	d, err := r.Lookup(selection)
	if err != nil {
		return layout.Document{}, err
	}
	p := view.Build(doc, branding)
	return layout.Document{
		Title:    fmt.Sprintf("%s %s", p.Title, p.Number),
		Family:   string(r.family),
		Template: d.Slug,
		Width:    r.width,
		Mono:     r.mono,
		Root:     d.Render(p),
	}, nil
}

// Infos lists the layouts with their 1-based selection values.
func (r *Registry) Infos() []domain.TemplateInfo {
	out := make([]domain.TemplateInfo, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = domain.TemplateInfo{Selection: d.Index + 1, Slug: d.Slug, Name: d.Name, Family: r.family}
	}
	return out
}

// Catalog holds one registry per document kind.
type Catalog struct {
	registries map[domain.Kind]*Registry
}

func NewCatalog() *Catalog {
	return &Catalog{registries: map[domain.Kind]*Registry{
		domain.KindInvoice: NewInvoiceRegistry(),
		domain.KindReceipt: NewReceiptRegistry(),
	}}
}

// For returns the registry serving kind.
func (c *Catalog) For(kind domain.Kind) (*Registry, error) {
	r, ok := c.registries[kind]
	if !ok {
		return nil, domain.ErrInvalidKind
	}
	return r, nil
}
