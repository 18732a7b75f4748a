package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"model", "gemini-2.0-flash", "api_key", "abc123", "trailing"})
	assert.Equal(t, []interface{}{"model", "gemini-2.0-flash", "api_key", "[REDACTED]", "trailing"}, got)
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("session_id", "s1").Warn("model skipped", "model", "gemini-3.0-pro", "auth_token", "xyz")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "model skipped", entries[0].Message)
		assert.Equal(t, "s1", ctx["session_id"])
		assert.Equal(t, "gemini-3.0-pro", ctx["model"])
		assert.Equal(t, "[REDACTED]", ctx["auth_token"])
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop()
	l.Info("hello", "k", "v")
	l.Sync()
}
