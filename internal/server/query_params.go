package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

func parseKind(value string) (invoicedomain.Kind, error) {
	kind := invoicedomain.Kind(strings.ToLower(strings.TrimSpace(value)))
	if kind == "" {
		return invoicedomain.KindInvoice, nil
	}
	if !kind.Valid() {
		return "", newValidationError("kind", "invalid_kind", "kind must be invoice or receipt")
	}
	return kind, nil
}

func parsePosition(c *gin.Context) (int, error) {
	pos, err := strconv.Atoi(strings.TrimSpace(c.Param("pos")))
	if err != nil || pos < 0 {
		return 0, newValidationError("pos", "invalid_pos", "item position must be a non-negative integer")
	}
	return pos, nil
}
