package format

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

var (
	randPadRe    = regexp.MustCompile(`\{RAND(\d+)\}`)
	fileUnsafeRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

const (
	DefaultInvoiceNumberTemplate = "{RAND}"

	minRandomLength = 3
	maxRandomLength = 8

	letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digits  = "0123456789"
)

// GenerateNumber returns a random invoice number of 3 to 8 characters
// containing at least one letter and one digit.
func GenerateNumber() string {
	return randomToken(minRandomLength + randIntn(maxRandomLength-minRandomLength+1))
}

func randomToken(length int) string {
	if length < 2 {
		length = 2
	}
	alphabet := letters + digits
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[randIntn(len(alphabet))]
	}
	// Mixed alpha/numeric: force one of each at distinct positions.
	li := randIntn(length)
	di := (li + 1 + randIntn(length-1)) % length
	out[li] = letters[randIntn(len(letters))]
	out[di] = digits[randIntn(len(digits))]
	return string(out)
}

func randIntn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return int(time.Now().UnixNano() % int64(n))
	}
	return int(v.Int64())
}

// FormatInvoiceNumber expands a numbering template for a document issued at issuedAt.
//
// Supported tokens: {YYYY} {YY} {MM} {DD} {RAND} (3-8 random characters) and
// {RANDn} (exactly n random characters).
func FormatInvoiceNumber(template string, issuedAt time.Time) (string, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}

	out := template

	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	out = randPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := randPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		return randomToken(width)
	})

	for strings.Contains(out, "{RAND}") {
		out = strings.Replace(out, "{RAND}", GenerateNumber(), 1)
	}

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}

// Numberer produces fresh invoice numbers.
type Numberer struct {
	template string
}

// NewNumberer returns a Numberer for template, falling back to the default template.
func NewNumberer(template string) *Numberer {
	if strings.TrimSpace(template) == "" {
		template = DefaultInvoiceNumberTemplate
	}
	return &Numberer{template: template}
}

// Next returns a new number. A broken template degrades to a plain random number.
func (n *Numberer) Next(issuedAt time.Time) string {
	if n == nil {
		return GenerateNumber()
	}
	out, err := FormatInvoiceNumber(n.template, issuedAt)
	if err != nil {
		return GenerateNumber()
	}
	return out
}

// FileName builds "<Kind>_<number>.pdf", using the Unix millisecond timestamp when number is blank.
func FileName(kind domain.Kind, number string, now time.Time) string {
	id := fileUnsafeRe.ReplaceAllString(strings.TrimSpace(number), "-")
	id = strings.Trim(id, "-")
	if id == "" {
		id = strconv.FormatInt(now.UnixMilli(), 10)
	}
	return kind.Label() + "_" + id + ".pdf"
}
