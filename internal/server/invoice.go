package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/invoicekit/internal/draft"
	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/pkg/db/pagination"
)

type emailDocumentRequest struct {
	Document invoicedomain.Document `json:"document"`
	To       string                 `json:"to"`
	Subject  string                 `json:"subject"`
	Message  string                 `json:"message"`
}

func (s *Server) ListTemplates(c *gin.Context) {
	kind, err := parseKind(c.Query("kind"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.invoiceSvc.Templates(kind)})
}

func (s *Server) ComputeDocument(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}

	resp, err := s.invoiceSvc.Compute(c.Request.Context(), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PreviewDocument(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}

	html, err := s.invoiceSvc.Preview(c.Request.Context(), userID(c), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) ExportDocument(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}

	file, err := s.invoiceSvc.Export(c.Request.Context(), userID(c), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (s *Server) EmailDocument(c *gin.Context) {
	var req emailDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tagKind(c, req.Document.Kind)

	resp, err := s.invoiceSvc.Email(c.Request.Context(), userID(c), req.Document, invoicedomain.EmailRequest{
		To:      strings.TrimSpace(req.To),
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveDocument(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}

	record, err := s.invoiceSvc.Save(c.Request.Context(), userID(c), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": record})
}

func (s *Server) ListDocuments(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), userID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Items, "page_info": resp.PageInfo})
}

func (s *Server) GetDocument(c *gin.Context) {
	doc, err := s.invoiceSvc.Load(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

// EditDocument copies a saved document into the user's draft under a new number.
func (s *Server) EditDocument(c *gin.Context) {
	ctx := c.Request.Context()
	doc, err := s.invoiceSvc.Load(ctx, userID(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.drafts.LoadHistorical(ctx, draft.Key{UserID: userID(c), Kind: doc.Kind}, doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func bindDocument(c *gin.Context) (invoicedomain.Document, bool) {
	var doc invoicedomain.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		AbortWithError(c, invalidRequestError())
		return invoicedomain.Document{}, false
	}
	tagKind(c, doc.Kind)
	return doc, true
}
