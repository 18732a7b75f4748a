package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasKind(vs []Violation, kind Kind) bool {
	for _, v := range vs {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

func TestScanFlagsEachForbiddenKey(t *testing.T) {
	s := New()
	for _, key := range ForbiddenKeys {
		t.Run(key, func(t *testing.T) {
			vs := s.Scan(map[string]any{"headline": "Plain", key: "x"})
			require.Len(t, vs, 1)
			assert.Equal(t, KindForbiddenKey, vs[0].Kind)
			assert.Equal(t, key, vs[0].Match)
		})
	}
}

func TestScanFlagsNestedKeys(t *testing.T) {
	s := New()
	payload := map[string]any{
		"body": "fine",
		"meta": map[string]any{
			"blocks": []any{map[string]any{"Style": "bold"}},
		},
	}
	vs := s.Scan(payload)
	require.Len(t, vs, 1)
	assert.Equal(t, "meta.blocks[0].Style", vs[0].Path)
}

func TestScanFlagsEachForbiddenPattern(t *testing.T) {
	s := New()
	samples := map[string]string{
		"w-N":      "Use w-4 here",
		"px-N":     "padding px-2 please",
		"py-N":     "py-3 spacing",
		"gap-N":    "a gap-6 grid",
		"<div":     "<div>wrapped</div>",
		"<span":    "a <SPAN>shout</SPAN>",
		"<style":   "<style>p{}</style>",
		"<script":  "<script>alert(1)</script>",
		"tailwind": "styled with Tailwind classes",
	}
	require.Len(t, samples, len(ForbiddenPatternNames()))
	for name, value := range samples {
		t.Run(name, func(t *testing.T) {
			vs := s.Scan(map[string]any{"body": value})
			assert.True(t, hasKind(vs, KindForbiddenPattern), "expected pattern hit for %q, got %v", value, vs)
		})
	}
}

func TestScanFlagsOtherMarkupViaMarkdownParse(t *testing.T) {
	s := New()
	vs := s.Scan(map[string]any{"body": "He ran <b>well</b> late."})
	require.NotEmpty(t, vs)
	assert.Equal(t, KindEmbeddedMarkup, vs[0].Kind)
	assert.Equal(t, "<b>", vs[0].Match)
}

func TestScanPassesCleanFragment(t *testing.T) {
	s := New()
	payload := map[string]any{
		"headline":         "Kiwi Dream: solid first-up run",
		"subheadline":      "Settled midfield and followed through on a soft 6 track.",
		"body":             "Ridden to help him relax early.\n\nHe was 3-4 lengths off the leader at the 400m, and 2 < 3.",
		"quote":            "He travelled beautifully",
		"quoteAttribution": "Jockey",
		"footer":           "Follow-2 updates next week. Draw-1 next start.",
	}
	assert.Empty(t, s.Scan(payload))
}

func TestBrandCheck(t *testing.T) {
	s := New("sensational")
	vs := s.BrandCheck("A REMARKABLE run, a Sensational finish and a testament to the team.")

	var got []string
	for _, v := range vs {
		assert.Equal(t, KindBannedTerm, v.Kind)
		got = append(got, v.Match)
	}
	assert.Equal(t, []string{"testament", "remarkable", "sensational"}, got)
	assert.Empty(t, s.BrandCheck("He settled and ran on late."))
}

func TestSummary(t *testing.T) {
	out := Summary([]Violation{{Kind: KindForbiddenKey, Path: "style", Match: "style"}})
	assert.Equal(t, `- forbidden_key "style" at style`, out)
}
