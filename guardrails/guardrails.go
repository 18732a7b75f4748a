// Package guardrails rejects model payloads that carry presentation markup and
// flags off-brand vocabulary.
package guardrails

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Kind classifies a violation.
type Kind string

const (
	KindForbiddenKey     Kind = "forbidden_key"
	KindForbiddenPattern Kind = "forbidden_pattern"
	KindEmbeddedMarkup   Kind = "embedded_markup"
	KindBannedTerm       Kind = "banned_term"
)

// Violation is one guardrail hit.
type Violation struct {
	Kind  Kind   `json:"kind"`
	Path  string `json:"path,omitempty"`
	Match string `json:"match"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return fmt.Sprintf("%s %q", v.Kind, v.Match)
	}
	return fmt.Sprintf("%s %q at %s", v.Kind, v.Match, v.Path)
}

// ForbiddenKeys are keys that carry rendering instructions. Matching ignores case.
var ForbiddenKeys = []string{
	"className",
	"class",
	"style",
	"css",
	"html",
	"innerHTML",
	"dangerouslySetInnerHTML",
	"script",
	"markup",
}

type namedPattern struct {
	name string
	re   *regexp.Regexp
}

// Utility-class tokens and markup tags that must never appear in text values.
var forbiddenPatterns = []namedPattern{
	{"w-N", regexp.MustCompile(`\bw-\d`)},
	{"px-N", regexp.MustCompile(`\bpx-\d`)},
	{"py-N", regexp.MustCompile(`\bpy-\d`)},
	{"gap-N", regexp.MustCompile(`\bgap-\d`)},
	{"<div", regexp.MustCompile(`(?i)<div`)},
	{"<span", regexp.MustCompile(`(?i)<span`)},
	{"<style", regexp.MustCompile(`(?i)<style`)},
	{"<script", regexp.MustCompile(`(?i)<script`)},
	{"tailwind", regexp.MustCompile(`(?i)tailwind`)},
}

// ForbiddenPatternNames lists the pattern set for reporting.
func ForbiddenPatternNames() []string {
	out := make([]string, len(forbiddenPatterns))
	for i, p := range forbiddenPatterns {
		out[i] = p.name
	}
	return out
}

// DefaultBannedTerms covers hype words and gambling-adjacent language.
var DefaultBannedTerms = []string{
	"bet",
	"multi",
	"sure thing",
	"get your money on",
	"revolutionary",
	"game-changing",
	"democratise",
	"democratize",
	"disrupting the industry",
	"glimmers",
	"compelling",
	"commendable",
	"resilience",
	"foundation",
	"evolving potential",
	"marks a significant step",
	"testament",
	"future appears bright",
	"illustrious",
	"remarkable",
	"formidable",
	"shining",
	"outstanding",
	"stellar",
	"dazzling",
	"commanding",
}

// Scanner runs the structural and vocabulary checks.
type Scanner struct {
	forbiddenKeys map[string]bool
	bannedTerms   []string
	md            goldmark.Markdown
}

// New returns a scanner using the default lists plus extra banned terms.
func New(extraTerms ...string) *Scanner {
	keys := make(map[string]bool, len(ForbiddenKeys))
	for _, k := range ForbiddenKeys {
		keys[strings.ToLower(k)] = true
	}
	terms := append([]string(nil), DefaultBannedTerms...)
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		seen[t] = true
	}
	for _, t := range extraTerms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return &Scanner{forbiddenKeys: keys, bannedTerms: terms, md: goldmark.New()}
}

// BannedTerms returns the active vocabulary list.
func (s *Scanner) BannedTerms() []string {
	return append([]string(nil), s.bannedTerms...)
}

// Scan walks payload and reports forbidden keys, forbidden patterns and
// embedded HTML. An empty result means the payload may be merged.
func (s *Scanner) Scan(payload any) []Violation {
	var out []Violation
	s.walk("", payload, &out)
	return out
}

func (s *Scanner) walk(path string, v any, out *[]Violation) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := joinPath(path, k)
			if s.forbiddenKeys[strings.ToLower(k)] {
				*out = append(*out, Violation{Kind: KindForbiddenKey, Path: child, Match: k})
			}
			s.walk(child, val[k], out)
		}
	case []any:
		for i, item := range val {
			s.walk(fmt.Sprintf("%s[%d]", path, i), item, out)
		}
	case string:
		s.scanString(path, val, out)
	}
}

func (s *Scanner) scanString(path, value string, out *[]Violation) {
	for _, p := range forbiddenPatterns {
		if m := p.re.FindString(value); m != "" {
			*out = append(*out, Violation{Kind: KindForbiddenPattern, Path: path, Match: m})
		}
	}
	for _, tag := range s.rawHTML(value) {
		*out = append(*out, Violation{Kind: KindEmbeddedMarkup, Path: path, Match: tag})
	}
}

// rawHTML parses value as Markdown and returns every inline or block HTML
// fragment found, so tags outside the fixed pattern list are caught too.
func (s *Scanner) rawHTML(value string) []string {
	if !strings.Contains(value, "<") {
		return nil
	}
	src := []byte(value)
	doc := s.md.Parser().Parse(text.NewReader(src))

	var found []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.RawHTML:
			var sb strings.Builder
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				sb.Write(seg.Value(src))
			}
			found = append(found, strings.TrimSpace(sb.String()))
		case *ast.HTMLBlock:
			var sb strings.Builder
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(src))
			}
			found = append(found, strings.TrimSpace(sb.String()))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// BrandCheck returns the banned terms found in text. Matching is a
// case-insensitive substring test, so results are advisory.
func (s *Scanner) BrandCheck(body string) []Violation {
	lower := strings.ToLower(body)
	var out []Violation
	for _, term := range s.bannedTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			out = append(out, Violation{Kind: KindBannedTerm, Match: term})
		}
	}
	return out
}

// Summary renders violations one per line.
func Summary(vs []Violation) string {
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = "- " + v.String()
	}
	return strings.Join(lines, "\n")
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
