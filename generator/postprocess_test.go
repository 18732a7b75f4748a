package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racedesk/document"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"clean", `{"headline":"A"}`, `{"headline":"A"}`},
		{"json fence", "```json\n{\"headline\":\"A\"}\n```", `{"headline":"A"}`},
		{"upper fence", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"tilde fence", "~~~\n{\"a\":1}\n~~~", `{"a":1}`},
		{"filler", "Sure! Here it is:\n{\"a\":{\"b\":2}}\nHope that helps.", `{"a":{"b":2}}`},
		{"no braces", "  I cannot help with that.  ", "I cannot help with that."},
		{"reversed braces", "} nothing {", "} nothing {"},
		{"indented fence", "  ```json  \n{\"a\":1}\n  ```", `{"a":1}`},
		{"tildes inside value", "```json\n{\"body\":\"He ran ~~~fast and ```code```\"}\n```", "{\"body\":\"He ran ~~~fast and ```code```\"}"},
		{"inline fence", "```json {\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.raw))
		})
	}
}

func TestExtractIdempotentOnCleanJSON(t *testing.T) {
	inputs := []string{
		`{"headline":"Kiwi Dream: solid run","body":"He settled well."}`,
		"```json\n{\"quote\":\"He travelled beautifully\"}\n```",
		"Result: {\"a\": [1, 2, {\"b\": \"c\"}]} done",
	}
	for _, in := range inputs {
		once := Extract(in)
		assert.Equal(t, once, Extract(once), in)
	}
}

func parseKind(t *testing.T, err error) ParseErrorKind {
	t.Helper()
	var perr *ParseError
	require.True(t, errors.As(err, &perr), "want ParseError, got %v", err)
	return perr.Kind
}

func TestValidateFull(t *testing.T) {
	frag, err := Validate(`{"headline":"H","body":"B","quote":null,"extra":1}`, document.TargetWhole)
	require.NoError(t, err)
	assert.Equal(t, document.FragmentFull, frag.Kind)
	assert.Equal(t, document.Fields{document.FieldHeadline: "H", document.FieldBody: "B"}, frag.Fields)
	assert.Contains(t, frag.Parsed, "extra")
}

func TestValidateAcceptsAttributionAlias(t *testing.T) {
	frag, err := Validate(`{"quote":"Q","attribution":"Trainer"}`, document.TargetWhole)
	require.NoError(t, err)
	assert.Equal(t, "Trainer", frag.Fields[document.FieldQuoteAttribution])

	frag, err = Validate(`{"quoteAttribution":"Jockey","attribution":"Trainer"}`, document.TargetWhole)
	require.NoError(t, err)
	assert.Equal(t, "Jockey", frag.Fields[document.FieldQuoteAttribution])
}

func TestValidateTargeted(t *testing.T) {
	frag, err := Validate(`{"headline":"X","body":"ignored"}`, document.TargetHeadline)
	require.NoError(t, err)
	assert.Equal(t, document.FragmentTargeted, frag.Kind)
	assert.Equal(t, document.Fields{document.FieldHeadline: "X"}, frag.Fields)

	frag, err = Validate(`{"quote":"Q","quoteAttribution":"Jockey","body":"no"}`, document.TargetQuote)
	require.NoError(t, err)
	assert.Equal(t, document.Fields{document.FieldQuote: "Q", document.FieldQuoteAttribution: "Jockey"}, frag.Fields)
}

func TestValidateSkipsWrongTypedKeys(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		target document.Target
		want   document.Fields
	}{
		{"unrelated key on headline edit", `{"headline":"New headline","footer":0}`, document.TargetHeadline,
			document.Fields{document.FieldHeadline: "New headline"}},
		{"body object on headline edit", `{"body":{"x":1},"headline":"H"}`, document.TargetHeadline,
			document.Fields{document.FieldHeadline: "H"}},
		{"bad partner on quote edit", `{"quote":"Q","quoteAttribution":7}`, document.TargetQuote,
			document.Fields{document.FieldQuote: "Q"}},
		{"whole document keeps usable keys", `{"headline":"H","body":"B","quote":["a"]}`, document.TargetWhole,
			document.Fields{document.FieldHeadline: "H", document.FieldBody: "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := Validate(tt.text, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, frag.Fields)
		})
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		target document.Target
		want   ParseErrorKind
	}{
		{"malformed", `{"headline":`, document.TargetWhole, ParseMalformed},
		{"plain text", `no json here`, document.TargetWhole, ParseMalformed},
		{"array", `["a"]`, document.TargetWhole, ParseNotObject},
		{"no schema keys", `{"foo":"bar"}`, document.TargetWhole, ParseMissingField},
		{"target missing", `{"body":"B"}`, document.TargetHeadline, ParseMissingField},
		{"wrong type", `{"headline":42}`, document.TargetWhole, ParseWrongType},
		{"only wrong types", `{"headline":42,"quote":["a"]}`, document.TargetWhole, ParseWrongType},
		{"target wrong type", `{"footer":0,"headline":false,"body":"B"}`, document.TargetHeadline, ParseWrongType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.text, tt.target)
			require.Error(t, err)
			assert.Equal(t, tt.want, parseKind(t, err))
		})
	}
}
