package format

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hasLetter = regexp.MustCompile(`[A-Z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

func TestGenerateNumberShape(t *testing.T) {
	for i := 0; i < 500; i++ {
		n := GenerateNumber()
		if len(n) < 3 || len(n) > 8 {
			t.Fatalf("unexpected length %d for %q", len(n), n)
		}
		if !hasLetter.MatchString(n) || !hasDigit.MatchString(n) {
			t.Fatalf("expected mixed alphanumeric, got %q", n)
		}
	}
}

func TestFormatInvoiceNumberTokens(t *testing.T) {
	issued := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	out, err := FormatInvoiceNumber("INV-{YYYY}{MM}{DD}-{RAND4}", issued)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "INV-20260309-"), out)
	assert.Len(t, out, len("INV-20260309-")+4)

	out, err = FormatInvoiceNumber("{YY}/{RAND}", issued)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "26/"), out)
}

func TestFormatInvoiceNumberRejectsUnknownTokens(t *testing.T) {
	_, err := FormatInvoiceNumber("INV-{SEQ}", time.Now())
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("  ", time.Now())
	assert.Error(t, err)
}

func TestNumbererFallsBackOnBrokenTemplate(t *testing.T) {
	n := NewNumberer("{BROKEN}")
	out := n.Next(time.Now())
	assert.True(t, len(out) >= 3 && len(out) <= 8, out)
}

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1760000000000)

	assert.Equal(t, "Invoice_AB12C.pdf", FileName(domain.KindInvoice, "AB12C", now))
	assert.Equal(t, "Receipt_1760000000000.pdf", FileName(domain.KindReceipt, "  ", now))
	assert.Equal(t, "Invoice_INV-2026-01.pdf", FileName(domain.KindInvoice, "INV/2026/01", now))
}
