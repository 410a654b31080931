package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailJSSenderPostsTemplateParams(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	sender := NewEmailJSSender(config.EmailJSConfig{
		Endpoint:   srv.URL,
		ServiceID:  "svc",
		TemplateID: "tpl",
		PublicKey:  "pub",
	}, srv.Client())

	err := sender.Send(context.Background(), "u1", Message{
		To:          "client@test",
		Subject:     "Invoice INV1",
		Text:        "hello",
		Params:      map[string]string{"company_name": "Acme"},
		Attachments: []Attachment{{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "svc", got.ServiceID)
	assert.Equal(t, "tpl", got.TemplateID)
	assert.Equal(t, "pub", got.UserID)
	assert.Equal(t, "client@test", got.TemplateParams["to_email"])
	assert.Equal(t, "Acme", got.TemplateParams["company_name"])
	assert.True(t, strings.HasPrefix(got.TemplateParams["attachment"], "data:application/pdf;base64,"))
}

func TestEmailJSSenderReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	defer srv.Close()

	sender := NewEmailJSSender(config.EmailJSConfig{Endpoint: srv.URL}, srv.Client())
	err := sender.Send(context.Background(), "u1", Message{To: "x@test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "template ID is invalid")
}
