package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/smallbiznis/invoicekit/internal/config"
)

// EmailJSSender calls the EmailJS REST API with a fixed template and a flat parameter map.
type EmailJSSender struct {
	cfg    config.EmailJSConfig
	client *http.Client
}

func NewEmailJSSender(cfg config.EmailJSConfig, client *http.Client) *EmailJSSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &EmailJSSender{cfg: cfg, client: client}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (s *EmailJSSender) Name() string { return PathTransactional }

func (s *EmailJSSender) Send(ctx context.Context, _ string, msg Message) error {
	payload := emailJSRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     s.cfg.TemplateID,
		UserID:         s.cfg.PublicKey,
		AccessToken:    s.cfg.AccessToken,
		TemplateParams: TemplateParams(msg),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// TemplateParams flattens msg into the transactional template's parameters.
// The first attachment travels as a data URL.
func TemplateParams(msg Message) map[string]string {
	params := make(map[string]string, len(msg.Params)+6)
	for k, v := range msg.Params {
		params[k] = v
	}
	params["to_email"] = msg.To
	params["subject"] = msg.Subject
	params["message"] = msg.Text
	if msg.HTML != "" {
		params["message_html"] = msg.HTML
	}
	if len(msg.Attachments) > 0 {
		a := msg.Attachments[0]
		params["attachment_name"] = a.Name
		params["attachment"] = "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
	}
	return params
}
