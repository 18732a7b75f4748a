// Package document holds the race-report document, the fragments merged into
// it and the reconciler that owns its mutation history.
package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field names one editorial field of a Document.
type Field string

const (
	FieldHeadline         Field = "headline"
	FieldSubheadline      Field = "subheadline"
	FieldBody             Field = "body"
	FieldQuote            Field = "quote"
	FieldQuoteAttribution Field = "quoteAttribution"
	FieldFooter           Field = "footer"
)

// EditorialFields lists the model-facing fields in schema order.
var EditorialFields = []Field{
	FieldHeadline,
	FieldSubheadline,
	FieldBody,
	FieldQuote,
	FieldQuoteAttribution,
	FieldFooter,
}

// ParseField accepts a canonical field name or the legacy "attribution" alias.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	if s == "attribution" {
		return FieldQuoteAttribution, nil
	}
	for _, f := range EditorialFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Document is the structured race report. The zero value is the empty document.
type Document struct {
	Headline         string `json:"headline" yaml:"headline"`
	Subheadline      string `json:"subheadline" yaml:"subheadline"`
	Body             string `json:"body" yaml:"body"`
	Quote            string `json:"quote" yaml:"quote"`
	QuoteAttribution string `json:"quoteAttribution" yaml:"quoteAttribution"`
	Footer           string `json:"footer" yaml:"footer"`

	ImageURL     string `json:"featuredImageUrl" yaml:"featuredImageUrl"`
	ImageCaption string `json:"imageCaption" yaml:"imageCaption"`
	VideoURL     string `json:"videoUrl" yaml:"videoUrl"`
	RawEmbedHTML string `json:"rawEmbedHtml" yaml:"rawEmbedHtml"`

	SubjectName string `json:"subjectName" yaml:"subjectName"`
	Location    string `json:"location" yaml:"location"`
}

// Get returns the value of an editorial field.
func (d Document) Get(f Field) string {
	switch f {
	case FieldHeadline:
		return d.Headline
	case FieldSubheadline:
		return d.Subheadline
	case FieldBody:
		return d.Body
	case FieldQuote:
		return d.Quote
	case FieldQuoteAttribution:
		return d.QuoteAttribution
	case FieldFooter:
		return d.Footer
	}
	return ""
}

// Set replaces the value of an editorial field. Unknown fields are ignored.
func (d *Document) Set(f Field, v string) {
	switch f {
	case FieldHeadline:
		d.Headline = v
	case FieldSubheadline:
		d.Subheadline = v
	case FieldBody:
		d.Body = v
	case FieldQuote:
		d.Quote = v
	case FieldQuoteAttribution:
		d.QuoteAttribution = v
	case FieldFooter:
		d.Footer = v
	}
}

// IsEmpty reports whether no editorial field carries text.
func (d Document) IsEmpty() bool {
	for _, f := range EditorialFields {
		if strings.TrimSpace(d.Get(f)) != "" {
			return false
		}
	}
	return true
}

// EditorialText joins the reader-visible fields for vocabulary checks.
func (d Document) EditorialText() string {
	parts := make([]string, 0, len(EditorialFields))
	for _, f := range EditorialFields {
		if v := d.Get(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Paragraphs splits the body on blank lines.
func (d Document) Paragraphs() []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(d.Body, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Markdown renders the document for terminal preview.
func (d Document) Markdown() string {
	var sb strings.Builder
	if d.Headline != "" {
		sb.WriteString("# " + d.Headline + "\n\n")
	}
	if d.Subheadline != "" {
		sb.WriteString("_" + d.Subheadline + "_\n\n")
	}
	for _, p := range d.Paragraphs() {
		sb.WriteString(p + "\n\n")
	}
	if d.Quote != "" {
		sb.WriteString("> " + d.Quote + "\n")
		if d.QuoteAttribution != "" {
			sb.WriteString(">\n> — " + d.QuoteAttribution + "\n")
		}
		sb.WriteString("\n")
	}
	if d.Footer != "" {
		sb.WriteString("---\n\n" + d.Footer + "\n")
	}
	return sb.String()
}

// UnmarshalJSON accepts the legacy "attribution" and "featuredImage" keys
// found in older saved builds.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var aux struct {
		plain
		Attribution   *string `json:"attribution"`
		FeaturedImage *string `json:"featuredImage"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = Document(aux.plain)
	if d.QuoteAttribution == "" && aux.Attribution != nil {
		d.QuoteAttribution = *aux.Attribution
	}
	if d.ImageURL == "" && aux.FeaturedImage != nil {
		d.ImageURL = *aux.FeaturedImage
	}
	return nil
}
