package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"
)

// Message is one outgoing mail. Params carries the flat key/value map used by
// template-based transactional APIs.
type Message struct {
	From        string
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
	Params      map[string]string
}

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// BuildMIME renders msg as an RFC 5322 message. Plain messages are single-part;
// messages with HTML or attachments become multipart/mixed.
func BuildMIME(msg Message, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	if msg.From != "" {
		header("From", msg.From)
	}
	header("To", msg.To)
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if msg.HTML == "" && len(msg.Attachments) == 0 {
		header("Content-Type", `text/plain; charset="UTF-8"`)
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuoted(&buf, msg.Text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	header("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	if msg.Text != "" || msg.HTML == "" {
		if err := textPart(mw, "text/plain", msg.Text); err != nil {
			return nil, err
		}
	}
	if msg.HTML != "" {
		if err := textPart(mw, "text/html", msg.HTML); err != nil {
			return nil, err
		}
	}
	for _, a := range msg.Attachments {
		if err := attachmentPart(mw, a); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeRaw base64url-encodes a MIME message for mailbox APIs.
func EncodeRaw(raw []byte) string {
	return base64.URLEncoding.EncodeToString(raw)
}

func textPart(mw *multipart.Writer, contentType, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType+`; charset="UTF-8"`)
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeQuoted(&buf, body); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func attachmentPart(mw *multipart.Writer, a Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := strings.ReplaceAll(a.Name, `"`, "")

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", fmt.Sprintf(`%s; name="%s"`, contentType, name))
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	h.Set("Content-Transfer-Encoding", "base64")
	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(a.Data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err = w.Write([]byte(encoded + "\r\n"))
	return err
}

func writeQuoted(w io.Writer, s string) error {
	qw := quotedprintable.NewWriter(w)
	if _, err := qw.Write([]byte(s)); err != nil {
		return err
	}
	return qw.Close()
}
