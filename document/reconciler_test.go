package document

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoIsPerfectInverse(t *testing.T) {
	r := NewReconciler(DefaultUndoCapacity)
	ops := []func(){
		func() { r.ApplyFull(Fields{FieldHeadline: "Kiwi Dream: solid return", FieldBody: "Ran on well."}) },
		func() { r.ApplyTargeted(FieldHeadline, Fields{FieldHeadline: "Kiwi Dream runs on"}) },
		func() { r.Apply(Degraded("unparseable reply")) },
		func() { r.ApplyTargeted(FieldQuote, Fields{FieldQuote: "He travelled well", FieldQuoteAttribution: "Jockey"}) },
		func() { r.ApplyFull(Fields{FieldFooter: "Evolution Stables"}) },
	}
	for _, op := range ops {
		op()
	}
	require.Equal(t, len(ops), r.Depth())

	for range ops {
		require.True(t, r.Undo())
	}
	if diff := cmp.Diff(Document{}, r.Document()); diff != "" {
		t.Fatalf("document not restored (-want +got):\n%s", diff)
	}
	assert.False(t, r.Undo(), "undo on empty history is a no-op")
}

func TestUndoRestoresEachStep(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyFull(Fields{FieldHeadline: "one"})
	first := r.Document()
	r.ApplyFull(Fields{FieldHeadline: "two"})

	require.True(t, r.Undo())
	assert.Equal(t, first, r.Document())
}

func TestUndoHistoryIsBounded(t *testing.T) {
	const capacity = 10
	const extra = 4
	r := NewReconciler(capacity)
	for i := 0; i < capacity+extra; i++ {
		r.ApplyFull(Fields{FieldHeadline: fmt.Sprintf("headline %d", i)})
	}
	assert.Equal(t, capacity, r.Depth())

	undos := 0
	for r.Undo() {
		undos++
	}
	assert.Equal(t, capacity, undos)
	// The oldest snapshots were evicted, so the earliest reachable state is
	// the one recorded before mutation number `extra`.
	assert.Equal(t, fmt.Sprintf("headline %d", extra-1), r.Document().Headline)
}

func TestApplyTargetedChangesOnlyTarget(t *testing.T) {
	r := NewReconciler(0)
	r.ApplyFull(Fields{FieldHeadline: "old", FieldBody: "keep me"})

	r.ApplyTargeted(FieldHeadline, Fields{FieldHeadline: "X", FieldBody: "ignored"})

	assert.Equal(t, "X", r.Document().Headline)
	assert.Equal(t, "keep me", r.Document().Body)
}

func TestApplyTargetedQuotePair(t *testing.T) {
	tests := []struct {
		name       string
		field      Field
		fields     Fields
		wantQuote  string
		wantAttrib string
	}{
		{
			name:       "quote with attribution",
			field:      FieldQuote,
			fields:     Fields{FieldQuote: "new quote", FieldQuoteAttribution: "Trainer"},
			wantQuote:  "new quote",
			wantAttrib: "Trainer",
		},
		{
			name:       "quote alone keeps attribution",
			field:      FieldQuote,
			fields:     Fields{FieldQuote: "new quote"},
			wantQuote:  "new quote",
			wantAttrib: "Jockey",
		},
		{
			name:       "attribution with quote",
			field:      FieldQuoteAttribution,
			fields:     Fields{FieldQuote: "q2", FieldQuoteAttribution: "Stephen Gray"},
			wantQuote:  "q2",
			wantAttrib: "Stephen Gray",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(0)
			r.ApplyFull(Fields{FieldQuote: "old quote", FieldQuoteAttribution: "Jockey", FieldBody: "body"})

			r.ApplyTargeted(tt.field, tt.fields)

			assert.Equal(t, tt.wantQuote, r.Document().Quote)
			assert.Equal(t, tt.wantAttrib, r.Document().QuoteAttribution)
			assert.Equal(t, "body", r.Document().Body)
		})
	}
}

func TestApplyFullKeepsMissingFields(t *testing.T) {
	r := NewReconciler(0)
	r.ApplyFull(Fields{FieldHeadline: "h", FieldSubheadline: "s", FieldBody: "b", FieldFooter: "f"})

	r.Apply(Full(Fields{FieldHeadline: "h2", FieldQuote: "q", FieldQuoteAttribution: "Jockey"}))

	want := Document{Headline: "h2", Subheadline: "s", Body: "b", Quote: "q", QuoteAttribution: "Jockey", Footer: "f"}
	if diff := cmp.Diff(want, r.Document()); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestApplyDegradedFillsBody(t *testing.T) {
	r := NewReconciler(0)
	r.ApplyFull(Fields{FieldHeadline: "keep"})

	r.Apply(Degraded("Sorry, here is the text"))

	assert.Equal(t, "Sorry, here is the text", r.Document().Body)
	assert.Equal(t, "keep", r.Document().Headline)
}

func TestEditSkipsNoop(t *testing.T) {
	r := NewReconciler(0)
	assert.True(t, r.Edit(FieldBody, "typed"))
	assert.False(t, r.Edit(FieldBody, "typed"))
	assert.Equal(t, 1, r.Depth())
}

func TestSetTargetToggles(t *testing.T) {
	r := NewReconciler(0)
	assert.Equal(t, TargetWhole, r.Target())
	assert.Equal(t, TargetHeadline, r.SetTarget(TargetHeadline))
	assert.Equal(t, TargetBody, r.SetTarget(TargetBody))
	assert.Equal(t, TargetWhole, r.SetTarget(TargetBody))
	assert.Equal(t, TargetWhole, r.SetTarget(TargetWhole))
}

func TestResetClearsEverything(t *testing.T) {
	r := NewReconciler(0)
	r.ApplyFull(Fields{FieldHeadline: "h"})
	r.SetTarget(TargetQuote)

	r.Reset()

	assert.Equal(t, Document{}, r.Document())
	assert.Equal(t, 0, r.Depth())
	assert.Equal(t, TargetWhole, r.Target())
}

func TestSetMediaPushesOnlyOnChange(t *testing.T) {
	r := NewReconciler(0)
	r.SetMedia(Document{SubjectName: "Kiwi Dream", Location: "Trentham"})
	r.SetMedia(Document{SubjectName: "Kiwi Dream", Location: "Trentham"})

	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, "Trentham", r.Document().Location)
}

func TestDocumentJSONLegacyKeys(t *testing.T) {
	var d Document
	require.NoError(t, json.Unmarshal([]byte(`{"headline":"h","attribution":"Jockey","featuredImage":"a.jpg"}`), &d))
	assert.Equal(t, "Jockey", d.QuoteAttribution)
	assert.Equal(t, "a.jpg", d.ImageURL)

	require.NoError(t, json.Unmarshal([]byte(`{"quoteAttribution":"Trainer","attribution":"Jockey"}`), &d))
	assert.Equal(t, "Trainer", d.QuoteAttribution)
}

func TestDocumentJSONHasEveryField(t *testing.T) {
	data, err := json.Marshal(Document{})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, f := range EditorialFields {
		assert.Equal(t, "", m[string(f)], "field %s", f)
	}
}

func TestParagraphs(t *testing.T) {
	d := Document{Body: "First para.\n\nSecond para.\r\n\r\n\n\nThird."}
	assert.Equal(t, []string{"First para.", "Second para.", "Third."}, d.Paragraphs())
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Target{
		"":            TargetWhole,
		"auto":        TargetWhole,
		"whole":       TargetWhole,
		"headline":    TargetHeadline,
		"attribution": TargetQuoteAttribution,
	} {
		got, err := ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTarget("footer")
	assert.Error(t, err)
}
