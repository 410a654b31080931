// Package render turns layout trees into the on-screen HTML preview.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/smallbiznis/invoicekit/internal/layout"
)

const pageHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Document.Title}}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      background: #f7f9fc;
      color: #111827;
      font-family: {{fontFamily .Document.Mono}};
      -webkit-font-smoothing: antialiased;
    }
    .page {
      background: #ffffff;
      margin: 0 auto;
      box-shadow: 0 2px 5px rgba(0,0,0,0.04);
    }
    .banner {
      margin: 0 auto 16px;
      font-size: 14px;
      color: #6b7280;
    }
    .banner strong { font-size: 22px; color: #111827; }
    .stack { display: flex; flex-direction: column; }
    .row { display: flex; flex-direction: row; }
    .text { white-space: pre-wrap; line-height: 1.4; }
    table { width: 100%; border-collapse: collapse; }
    th {
      font-size: 10px;
      text-transform: uppercase;
      letter-spacing: 0.3px;
      color: #6b7280;
      border-bottom: 1px solid #e5e7eb;
      padding: 8px 4px;
    }
    td {
      border-bottom: 1px solid #e5e7eb;
      padding: 8px 4px;
      vertical-align: top;
      white-space: pre-wrap;
    }
  </style>
</head>
<body>
  {{if .Banner}}<div class="banner" style="width: {{.Document.Width}}px;">Amount due <strong>{{.Banner}}</strong></div>{{end}}
  <div class="page" style="width: {{.Document.Width}}px;" data-template="{{.Document.Template}}">
    {{template "node" .Document.Root}}
  </div>
</body>
</html>
{{define "node"}}{{if .}}
{{- if eq .Kind "stack"}}<div class="stack" style="{{nodeStyle .}}">{{range .Children}}{{template "node" .}}{{end}}</div>
{{- else if eq .Kind "row"}}<div class="row" style="{{nodeStyle .}}">{{range .Children}}<div style="{{flex .}}">{{template "node" .}}</div>{{end}}</div>
{{- else if eq .Kind "text"}}<div class="text" style="{{nodeStyle .}}">{{.Text}}</div>
{{- else if eq .Kind "image"}}{{if .Src}}<div style="{{nodeStyle .}}"><img src="{{.Src}}" alt="{{.Placeholder}}" style="max-height: {{.Height}}px;" /></div>{{else}}<div class="text" style="{{nodeStyle .}}">{{.Placeholder}}</div>{{end}}
{{- else if eq .Kind "qr"}}<div class="qr" data-payload="{{.Text}}" style="width: {{.Height}}px; height: {{.Height}}px; border: 1px dashed #9ca3af;"></div>
{{- else if eq .Kind "rule"}}<hr style="border: 0; border-top: 1px solid {{color .Style.Color}}; margin: 0; width: 100%;" />
{{- else if eq .Kind "spacer"}}<div style="height: {{.Height}}px;"></div>
{{- else if eq .Kind "table"}}<table style="{{nodeStyle .}}"><thead><tr>{{range .Columns}}<th style="text-align: {{align .Align}};">{{.Title}}</th>{{end}}</tr></thead><tbody>{{$cols := .Columns}}{{range .Rows}}<tr>{{range $i, $cell := .}}<td style="text-align: {{cellAlign $cols $i}};">{{$cell}}</td>{{end}}</tr>{{end}}</tbody></table>
{{- end}}{{end}}{{end}}`

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// RenderInput is one preview request. Banner, when set, is shown above the page.
type RenderInput struct {
	Document layout.Document
	Banner   string
}

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() *HTMLRenderer {
	funcs := template.FuncMap{
		"nodeStyle":  nodeStyle,
		"flex":       flex,
		"color":      func(v string) template.CSS { return template.CSS(sanitizeColor(v, "#e5e7eb")) },
		"align":      func(a layout.Align) string { return string(sanitizeAlign(a)) },
		"cellAlign":  cellAlign,
		"fontFamily": fontFamily,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("page").Funcs(funcs).Parse(pageHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	if input.Document.Root == nil {
		return "", fmt.Errorf("render: empty document")
	}
	if input.Document.Width <= 0 {
		input.Document.Width = layout.WidthA4
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func nodeStyle(n *layout.Node) template.CSS {
	s := n.Style
	parts := make([]string, 0, 8)
	if s.Size > 0 {
		parts = append(parts, fmt.Sprintf("font-size: %gpx", s.Size))
	}
	if s.Bold {
		parts = append(parts, "font-weight: 700")
	}
	if s.Mono {
		parts = append(parts, "font-family: "+string(fontFamily(true)))
	}
	if s.Align != "" {
		parts = append(parts, "text-align: "+string(sanitizeAlign(s.Align)))
	}
	if s.Color != "" {
		parts = append(parts, "color: "+sanitizeColor(s.Color, "#111827"))
	}
	if s.Background != "" {
		parts = append(parts, "background: "+sanitizeColor(s.Background, "#ffffff"))
	}
	if s.Padding > 0 {
		parts = append(parts, fmt.Sprintf("padding: %gpx", s.Padding))
	}
	if s.Gap > 0 {
		parts = append(parts, fmt.Sprintf("gap: %gpx", s.Gap))
	}
	return template.CSS(strings.Join(parts, "; "))
}

func flex(n *layout.Node) template.CSS {
	w := n.Weight
	if w <= 0 {
		w = 1
	}
	return template.CSS(fmt.Sprintf("flex: %d 1 0; min-width: 0", w))
}

func cellAlign(cols []layout.Column, i int) string {
	if i < 0 || i >= len(cols) {
		return string(layout.AlignLeft)
	}
	return string(sanitizeAlign(cols[i].Align))
}

func fontFamily(mono bool) template.CSS {
	if mono {
		return `"Go Mono", ui-monospace, Menlo, Consolas, monospace`
	}
	return `"Go", -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif`
}

func sanitizeAlign(a layout.Align) layout.Align {
	switch a {
	case layout.AlignCenter, layout.AlignRight:
		return a
	default:
		return layout.AlignLeft
	}
}

func sanitizeColor(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return fallback
}
