package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/invoicekit/internal/draft"
	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

type patchDraftRequest struct {
	Notes         *string  `json:"notes"`
	CurrencyCode  *string  `json:"currency_code"`
	TaxPercentage *float64 `json:"tax_percentage"`
	Cashier       *string  `json:"cashier"`
	LogoURL       *string  `json:"logo_url"`
	TemplateIndex *int     `json:"template_index"`
}

type updateDraftItemRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type fillDraftItemRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) GetDraft(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	s.respondDraft(c)(s.drafts.Get(c.Request.Context(), key))
}

func (s *Server) ResetDraft(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	s.respondDraft(c)(s.drafts.Reset(c.Request.Context(), key))
}

func (s *Server) DiscardDraft(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	if err := s.drafts.Discard(c.Request.Context(), key); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) PatchDraft(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	var req patchDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.respondDraft(c)(s.drafts.Apply(c.Request.Context(), key, func(ctl *draft.Controller) (invoicedomain.Document, error) {
		doc := ctl.Document()
		if req.TaxPercentage != nil {
			var err error
			if doc, err = ctl.SetTaxPercentage(*req.TaxPercentage); err != nil {
				return doc, err
			}
		}
		if req.Notes != nil {
			doc = ctl.SetNotes(*req.Notes)
		}
		if req.CurrencyCode != nil {
			doc = ctl.SetCurrency(*req.CurrencyCode)
		}
		if req.Cashier != nil {
			doc = ctl.SetCashier(*req.Cashier)
		}
		if req.LogoURL != nil {
			doc = ctl.SetLogoURL(*req.LogoURL)
		}
		if req.TemplateIndex != nil {
			doc = ctl.SetTemplate(*req.TemplateIndex)
		}
		return doc, nil
	}))
}

func (s *Server) SetDraftMeta(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	var meta invoicedomain.Meta
	if err := c.ShouldBindJSON(&meta); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.respondDraft(c)(s.drafts.Apply(c.Request.Context(), key, func(ctl *draft.Controller) (invoicedomain.Document, error) {
		return ctl.SetMeta(meta), nil
	}))
}

func (s *Server) SetDraftParty(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	var party invoicedomain.Party
	if err := c.ShouldBindJSON(&party); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	role := draft.PartyRole(strings.TrimSpace(c.Param("role")))

	s.respondDraft(c)(s.drafts.Apply(c.Request.Context(), key, func(ctl *draft.Controller) (invoicedomain.Document, error) {
		return ctl.SetParty(role, party)
	}))
}

func (s *Server) AddDraftItem(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	s.respondDraft(c)(s.drafts.Apply(c.Request.Context(), key, func(ctl *draft.Controller) (invoicedomain.Document, error) {
		return ctl.AddItem(), nil
	}))
}

func (s *Server) UpdateDraftItem(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	pos, err := parsePosition(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req updateDraftItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.respondDraft(c)(s.drafts.Apply(c.Request.Context(), key, func(ctl *draft.Controller) (invoicedomain.Document, error) {
		return ctl.UpdateItem(pos, strings.TrimSpace(req.Field), req.Value)
	}))
}

// RemoveDraftItem is a no-op when the row is the last empty one.
func (s *Server) RemoveDraftItem(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	pos, err := parsePosition(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondDraft(c)(s.drafts.Apply(c.Request.Context(), key, func(ctl *draft.Controller) (invoicedomain.Document, error) {
		return ctl.RemoveItem(pos)
	}))
}

// FillDraftItem copies a catalog product into the row at pos.
func (s *Server) FillDraftItem(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	pos, err := parsePosition(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req fillDraftItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	item, err := s.productSvc.LineItem(ctx, key.UserID, req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondDraft(c)(s.drafts.Apply(ctx, key, func(ctl *draft.Controller) (invoicedomain.Document, error) {
		return ctl.FillItem(pos, item)
	}))
}

func (s *Server) respondDraft(c *gin.Context) func(invoicedomain.Document, error) {
	return func(doc invoicedomain.Document, err error) {
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": doc})
	}
}

func draftKey(c *gin.Context) (draft.Key, bool) {
	kind, err := parseKind(c.Param("kind"))
	if err != nil {
		AbortWithError(c, err)
		return draft.Key{}, false
	}
	tagKind(c, kind)
	return draft.Key{UserID: userID(c), Kind: kind}, true
}
