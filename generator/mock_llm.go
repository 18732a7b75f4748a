package generator

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MockReply is one scripted model answer.
type MockReply struct {
	Text string
	Err  error
}

// MockCall records a Complete invocation.
type MockCall struct {
	Model  string
	Prompt Prompt
}

// MockLLM 一个简单的占位实现，便于本地调试和测试，不调用外部模型。
// Scripted replies are consumed per model in order; the last one repeats.
// Models without a script get a canned document built from the prompt.
type MockLLM struct {
	mu        sync.Mutex
	scripts   map[string][]MockReply
	calls     []MockCall
	available []string
	listErr   error
}

func NewMockLLM() *MockLLM {
	return &MockLLM{scripts: make(map[string][]MockReply)}
}

// Script sets the replies for model.
func (m *MockLLM) Script(model string, replies ...MockReply) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[model] = append([]MockReply(nil), replies...)
	return m
}

// WithListing makes ListModels return names, or err when non-nil.
func (m *MockLLM) WithListing(names []string, err error) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = append([]string(nil), names...)
	m.listErr = err
	return m
}

// Calls returns the recorded invocations in order.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CalledModels returns the model of every recorded call.
func (m *MockLLM) CalledModels() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Model
	}
	return out
}

func (m *MockLLM) Complete(ctx context.Context, model string, prompt Prompt) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Model: model, Prompt: prompt})
	script, ok := m.scripts[model]
	var reply MockReply
	if ok && len(script) > 0 {
		reply = script[0]
		if len(script) > 1 {
			m.scripts[model] = script[1:]
		}
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ok {
		return cannedReply(prompt), nil
	}
	return reply.Text, reply.Err
}

func (m *MockLLM) ListModels(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string(nil), m.available...), nil
}

// cannedReply returns a plain document so the CLI and server work offline.
func cannedReply(prompt Prompt) string {
	source := section(prompt.User, "RAW REPORT:")
	if source == "" {
		source = section(prompt.User, "OPERATOR INSTRUCTIONS:")
	}
	headline := "Race report"
	if first, _, _ := strings.Cut(source, "."); strings.TrimSpace(first) != "" {
		headline = strings.TrimSpace(first)
	}
	doc := map[string]string{
		"headline":         headline,
		"subheadline":      "Draft prepared offline.",
		"body":             source,
		"quote":            "",
		"quoteAttribution": "",
		"footer":           "",
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

func section(text, marker string) string {
	_, after, ok := strings.Cut(text, marker)
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}
