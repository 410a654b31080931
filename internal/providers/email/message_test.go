package email

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentAt = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestBuildMIMEPlain(t *testing.T) {
	raw, err := BuildMIME(Message{From: "a@test", To: "b@test", Subject: "Hello", Text: "Body text"}, sentAt)
	require.NoError(t, err)

	m, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "b@test", m.Header.Get("To"))
	assert.Equal(t, "Hello", m.Header.Get("Subject"))
	assert.True(t, strings.HasPrefix(m.Header.Get("Content-Type"), "text/plain"))

	body, err := io.ReadAll(m.Body)
	require.NoError(t, err)
	assert.Equal(t, "Body text", string(body))
}

func TestBuildMIMEWithAttachment(t *testing.T) {
	pdf := []byte("%PDF-1.3 fake")
	raw, err := BuildMIME(Message{
		To:          "b@test",
		Subject:     "Invoice INV1",
		Text:        "See attached",
		HTML:        "<p>See attached</p>",
		Attachments: []Attachment{{Name: "Invoice_INV1.pdf", ContentType: "application/pdf", Data: pdf}},
	}, sentAt)
	require.NoError(t, err)

	m, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	r := multipart.NewReader(m.Body, params["boundary"])
	var types []string
	var attachment []byte
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ct := part.Header.Get("Content-Type")
		types = append(types, strings.SplitN(ct, ";", 2)[0])
		if strings.HasPrefix(ct, "application/pdf") {
			assert.Equal(t, "Invoice_INV1.pdf", part.FileName())
			encoded, err := io.ReadAll(part)
			require.NoError(t, err)
			attachment, err = base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []string{"text/plain", "text/html", "application/pdf"}, types)
	assert.Equal(t, pdf, attachment)
}

func TestEncodeRawIsURLSafe(t *testing.T) {
	encoded := EncodeRaw([]byte{0xfb, 0xff, 0xfe})
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")

	decoded, err := base64.URLEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff, 0xfe}, decoded)
}
