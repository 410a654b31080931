package draft

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/currency"
	"github.com/smallbiznis/invoicekit/internal/invoice/calc"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

const DefaultDueDays = 30

// Item fields accepted by UpdateItem.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldQuantity    = "quantity"
	FieldUnitAmount  = "unit_amount"
)

// PartyRole selects which address block a setter writes.
type PartyRole string

const (
	RoleCompany PartyRole = "company"
	RoleBillTo  PartyRole = "bill_to"
	RoleShipTo  PartyRole = "ship_to"
)

type Numberer interface {
	Next(issuedAt time.Time) string
}

type Snapshotter interface {
	Snapshot(key Key, doc domain.Document)
}

type Options struct {
	Numberer Numberer
	Clock    clock.Clock
	DueDays  int
	Currency string
	Saver    Snapshotter
}

// Controller owns one mutable document. It is not safe for concurrent use.
// Every mutation re-derives totals and hands a snapshot to the saver.
type Controller struct {
	key   Key
	doc   domain.Document
	opts  Options
	dirty bool
}

func NewController(key Key, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	if opts.DueDays <= 0 {
		opts.DueDays = DefaultDueDays
	}
	return &Controller{key: key, opts: opts, doc: domain.Document{Kind: key.Kind}}
}

func (c *Controller) Key() Key { return c.key }

// Dirty reports whether the draft changed since it was created or resumed.
func (c *Controller) Dirty() bool { return c.dirty }

// Document returns a copy of the current draft.
func (c *Controller) Document() domain.Document {
	return c.doc.Clone()
}

// Seed starts a fresh draft.
func (c *Controller) Seed() domain.Document {
	now := c.opts.Clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	c.doc = domain.Document{
		Kind: c.key.Kind,
		Meta: domain.Meta{
			Number:    c.nextNumber(today),
			IssueDate: today,
			DueDate:   today.AddDate(0, 0, c.opts.DueDays),
		},
		Items:         []domain.LineItem{{}},
		CurrencyCode:  currency.Normalize(c.opts.Currency),
		TemplateIndex: 1,
	}
	return c.commit()
}

// LoadHistorical adopts a saved document under a fresh number so re-saving
// never overwrites the original.
func (c *Controller) LoadHistorical(doc domain.Document) domain.Document {
	c.adopt(doc)
	c.doc.Meta.Number = c.nextNumber(c.opts.Clock.Now())
	return c.commit()
}

// Resume adopts a cached draft unchanged. Nothing is snapshotted.
func (c *Controller) Resume(doc domain.Document) domain.Document {
	c.adopt(doc)
	calc.Recompute(&c.doc)
	return c.doc.Clone()
}

func (c *Controller) SetMeta(meta domain.Meta) domain.Document {
	c.doc.Meta = meta
	return c.commit()
}

func (c *Controller) SetParty(role PartyRole, party domain.Party) (domain.Document, error) {
	switch role {
	case RoleCompany:
		c.doc.Company = party
	case RoleBillTo:
		c.doc.BillTo = party
	case RoleShipTo:
		c.doc.ShipTo = party
	default:
		return c.Document(), domain.NewValidationError("party", "unknown party role "+string(role))
	}
	return c.commit(), nil
}

func (c *Controller) SetNotes(notes string) domain.Document {
	c.doc.Notes = notes
	return c.commit()
}

func (c *Controller) SetCurrency(code string) domain.Document {
	c.doc.CurrencyCode = currency.Normalize(code)
	return c.commit()
}

func (c *Controller) SetTaxPercentage(pct float64) (domain.Document, error) {
	if pct < 0 || pct > 100 {
		return c.Document(), domain.NewValidationError("tax_percentage", "must be between 0 and 100")
	}
	c.doc.TaxPercentage = pct
	return c.commit(), nil
}

func (c *Controller) SetCashier(name string) domain.Document {
	c.doc.Cashier = name
	return c.commit()
}

func (c *Controller) SetLogoURL(url string) domain.Document {
	c.doc.LogoURL = strings.TrimSpace(url)
	return c.commit()
}

// SetTemplate changes only the template selection.
func (c *Controller) SetTemplate(selection int) domain.Document {
	c.doc.TemplateIndex = selection
	return c.commit()
}

// AddItem appends an empty row.
func (c *Controller) AddItem() domain.Document {
	c.doc.Items = append(c.doc.Items, domain.LineItem{})
	return c.commit()
}

// CanRemoveItem reports whether RemoveItem(pos) would change the list.
// The only row left cannot be removed while it is empty.
func (c *Controller) CanRemoveItem(pos int) bool {
	if pos < 0 || pos >= len(c.doc.Items) {
		return false
	}
	return !(len(c.doc.Items) == 1 && c.doc.Items[0].IsEmpty())
}

// RemoveItem deletes the row at pos. Blocked removals are a no-op.
func (c *Controller) RemoveItem(pos int) (domain.Document, error) {
	if pos < 0 || pos >= len(c.doc.Items) {
		return c.Document(), domain.ErrItemOutOfRange
	}
	if !c.CanRemoveItem(pos) {
		return c.Document(), nil
	}
	c.doc.Items = append(c.doc.Items[:pos], c.doc.Items[pos+1:]...)
	return c.commit(), nil
}

// UpdateItem sets one field of the row at pos from its form value.
// Blank numeric input counts as zero.
func (c *Controller) UpdateItem(pos int, field, value string) (domain.Document, error) {
	if pos < 0 || pos >= len(c.doc.Items) {
		return c.Document(), domain.ErrItemOutOfRange
	}
	item := &c.doc.Items[pos]
	switch field {
	case FieldName:
		item.Name = value
	case FieldDescription:
		item.Description = value
	case FieldQuantity, FieldUnitAmount:
		n, err := parseAmount(field, value)
		if err != nil {
			return c.Document(), err
		}
		if field == FieldQuantity {
			item.Quantity = n
		} else {
			item.UnitAmount = n
		}
	default:
		return c.Document(), domain.ErrUnknownItemField
	}
	return c.commit(), nil
}

// FillItem overwrites the row at pos, typically from a catalog product.
// A pos equal to the row count appends.
func (c *Controller) FillItem(pos int, item domain.LineItem) (domain.Document, error) {
	if pos < 0 || pos > len(c.doc.Items) {
		return c.Document(), domain.ErrItemOutOfRange
	}
	if item.Quantity < 0 || item.UnitAmount < 0 {
		return c.Document(), domain.NewValidationError("item", "amounts must not be negative")
	}
	if pos == len(c.doc.Items) {
		c.doc.Items = append(c.doc.Items, item)
	} else {
		c.doc.Items[pos] = item
	}
	return c.commit(), nil
}

func (c *Controller) adopt(doc domain.Document) {
	c.doc = doc.Clone()
	c.doc.Kind = c.key.Kind
	c.doc.CurrencyCode = currency.Normalize(c.doc.CurrencyCode)
	if c.doc.TemplateIndex <= 0 {
		c.doc.TemplateIndex = 1
	}
}

func (c *Controller) commit() domain.Document {
	calc.Recompute(&c.doc)
	c.dirty = true
	if c.opts.Saver != nil {
		c.opts.Saver.Snapshot(c.key, c.doc)
	}
	return c.doc.Clone()
}

func (c *Controller) nextNumber(at time.Time) string {
	if c.opts.Numberer == nil {
		return ""
	}
	return c.opts.Numberer.Next(at)
}

func parseAmount(field, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, domain.NewValidationError(field, "must be a number")
	}
	if n < 0 {
		return 0, domain.NewValidationError(field, "must not be negative")
	}
	return n, nil
}
