package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/invoicekit/internal/quota"
	subscriptiondomain "github.com/smallbiznis/invoicekit/internal/subscription/domain"
)

// GetUsage reports the plan counters and whether each guarded action may run now.
func (s *Server) GetUsage(c *gin.Context) {
	ctx := c.Request.Context()
	user := userID(c)

	usage, err := s.subscriptionSvc.CurrentUsage(ctx, user)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actions := gin.H{}
	for _, action := range []quota.Action{quota.ActionSaveInvoice, quota.ActionDownloadPDF} {
		decision, err := s.gate.Check(ctx, user, action)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		actions[string(action)] = decision
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"usage": usage, "actions": actions}})
}

func (s *Server) ChangePlan(c *gin.Context) {
	var req subscriptiondomain.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.ChangePlan(c.Request.Context(), strings.TrimSpace(c.Param("userId")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
