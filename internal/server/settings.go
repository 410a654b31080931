package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
)

const logoFormField = "logo"

type linkMailboxRequest struct {
	Email          string `json:"email"`
	RefreshToken   string `json:"refresh_token"`
	PrefersMailbox bool   `json:"prefers_mailbox"`
}

func (s *Server) GetBranding(c *gin.Context) {
	resp, err := s.settingsSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBranding(c *gin.Context) {
	var req settingsdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingsSvc.Update(c.Request.Context(), userID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UploadLogo(c *gin.Context) {
	header, err := c.FormFile(logoFormField)
	if err != nil {
		AbortWithError(c, newValidationError(logoFormField, "required", "logo file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	resp, err := s.settingsSvc.UploadLogo(c.Request.Context(), userID(c), settingsdomain.LogoUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// LinkMailbox stores the refresh token returned by the mailbox consent flow.
func (s *Server) LinkMailbox(c *gin.Context) {
	var req linkMailboxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	cred, err := s.mailbox.Link(c.Request.Context(), userID(c), strings.TrimSpace(req.Email), req.RefreshToken, req.PrefersMailbox)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"email":           cred.Email,
		"prefers_mailbox": cred.PrefersMailbox,
		"linked_at":       cred.UpdatedAt,
	}})
}
