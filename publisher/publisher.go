// Package publisher renders a finished document for hand-off: Markdown,
// HTML, JSON or YAML.
package publisher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"racedesk/document"
	"racedesk/layout"
)

// Format selects the export encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

const digestLimit = 160

// ParseFormat accepts a format name; "" means Markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "md":
		return FormatMarkdown, nil
	case FormatMarkdown, FormatHTML, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	}
	return "text/markdown; charset=utf-8"
}

// Export is the structured export envelope.
type Export struct {
	Template     layout.Template   `json:"template" yaml:"template"`
	TemplateName string            `json:"templateName" yaml:"templateName"`
	WordCount    int               `json:"wordCount" yaml:"wordCount"`
	Digest       string            `json:"digest" yaml:"digest"`
	Document     document.Document `json:"document" yaml:"document"`
}

// Render encodes doc under the resolved template.
func Render(doc document.Document, tmpl layout.Template, format Format) ([]byte, error) {
	switch format {
	case FormatMarkdown, "":
		return []byte(doc.Markdown()), nil
	case FormatHTML:
		s, err := renderHTML(doc, tmpl)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case FormatJSON:
		return json.MarshalIndent(newExport(doc, tmpl), "", "  ")
	case FormatYAML:
		return yaml.Marshal(newExport(doc, tmpl))
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

func newExport(doc document.Document, tmpl layout.Template) Export {
	return Export{
		Template:     tmpl,
		TemplateName: tmpl.DisplayName(),
		WordCount:    layout.WordCount(doc.Body),
		Digest:       defaultDigest(doc.Body, digestLimit),
		Document:     doc,
	}
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderHTML wraps the Markdown rendering in an article tagged with the
// template. Raw HTML inside the text is dropped by the Markdown renderer.
func renderHTML(doc document.Document, tmpl layout.Template) (string, error) {
	body, err := mdToHTML(doc.Markdown())
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<article data-template=\"%s\">\n", html.EscapeString(string(tmpl)))
	if imageURL, ok := webURL(doc.ImageURL); ok {
		b.WriteString("<figure>")
		fmt.Fprintf(&b, "<img src=\"%s\" alt=\"%s\">", html.EscapeString(imageURL), html.EscapeString(doc.ImageCaption))
		if doc.ImageCaption != "" {
			fmt.Fprintf(&b, "<figcaption>%s</figcaption>", html.EscapeString(doc.ImageCaption))
		}
		b.WriteString("</figure>\n")
	}
	b.WriteString(body)
	if videoURL, ok := webURL(doc.VideoURL); ok {
		fmt.Fprintf(&b, "<p><a href=\"%s\">Watch the race replay</a></p>\n", html.EscapeString(videoURL))
	}
	b.WriteString("</article>\n")
	return b.String(), nil
}

// webURL 只放行带主机名的 http/https 链接，其余（javascript:、data: 等）丢弃。
func webURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), true
	}
	return "", false
}

// defaultDigest 取正文前 limit 个字符作为摘要。
func defaultDigest(md string, limit int) string {
	joined := strings.Join(strings.Fields(md), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}
