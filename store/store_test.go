package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"racedesk/document"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, UntitledName, DefaultName(document.Document{}))
	assert.Equal(t, "Kiwi Dream: solid", DefaultName(document.Document{Headline: "  Kiwi Dream: solid "}))

	long := strings.Repeat("é", 100)
	assert.Equal(t, strings.Repeat("é", 80), DefaultName(document.Document{Headline: long}))
}

func TestSaveUpsertsByName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.Save(ctx, "", document.Document{Headline: "Kiwi Dream"}, nil, "gemini-2.0-flash")
	require.NoError(t, err)
	assert.Equal(t, "Kiwi Dream", first.Name)

	msgs := []document.Message{{ID: "m1", Role: document.RoleUser, Content: "tighten"}}
	second, err := s.Save(ctx, "Kiwi Dream", document.Document{Headline: "Kiwi Dream", Body: "New body"}, msgs, "gemini-3.0-pro")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "New body", all[0].Document.Body)
	assert.Equal(t, "gemini-3.0-pro", all[0].Model)
	require.Len(t, all[0].Messages, 1)
	assert.Equal(t, "tighten", all[0].Messages[0].Content)
}

func TestListNewestFirstAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.Save(ctx, "A", document.Document{Headline: "A"}, nil, "")
	require.NoError(t, err)
	_, err = s.Save(ctx, "B", document.Document{Headline: "B"}, nil, "")
	require.NoError(t, err)

	cp, err := s.Duplicate(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A (Copy)", cp.Name)
	assert.NotEqual(t, a.ID, cp.ID)
	assert.Equal(t, a.Document, cp.Document)

	again, err := s.Duplicate(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A (Copy) (Copy)", again.Name)

	all, err := s.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, b := range all {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"A (Copy) (Copy)", "A (Copy)", "B", "A"}, names)
}

func TestConcurrentDuplicatesNeverOverwrite(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	s.now = time.Now

	src, err := s.Save(ctx, "A", document.Document{Headline: "A"}, nil, "")
	require.NoError(t, err)

	const copies = 6
	var g errgroup.Group
	for range copies {
		g.Go(func() error {
			_, err := s.Duplicate(ctx, src.ID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, copies+1)
	seen := make(map[string]bool)
	for _, b := range all {
		assert.False(t, seen[b.Name], "duplicate name %q", b.Name)
		seen[b.Name] = true
		assert.Equal(t, "A", b.Document.Headline)
	}
	assert.True(t, seen["A"+strings.Repeat(" (Copy)", copies)])
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Duplicate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMigratesLegacyKeys(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, name, model, document, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"legacy", "Old build", "gemini-1.5-pro-latest",
		`{"headline":"H","quote":"Q","attribution":"Trainer","featuredImage":"https://example.com/i.jpg"}`,
		`[]`, 1700000000000, 1700000000000)
	require.NoError(t, err)

	b, err := s.Get(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "Trainer", b.Document.QuoteAttribution)
	assert.Equal(t, "https://example.com/i.jpg", b.Document.ImageURL)
	assert.Equal(t, "", b.Document.Body)
	assert.Empty(t, b.Messages)
}
