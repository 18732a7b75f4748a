package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"racedesk/document"
	"racedesk/guardrails"
	"racedesk/layout"
	"racedesk/logger"
)

// Session 持有一篇稿件的编辑上下文：文档、撤销历史、消息记录与布局选择。
// Invocation plus merge form one unit guarded by a weight-1 semaphore; a
// second submission while one is in flight gets ErrBusy.
type Session struct {
	ID string

	agent *Agent
	log   *logger.Logger
	sem   *semaphore.Weighted

	mu      sync.RWMutex
	rec     *document.Reconciler
	msgs    *document.MessageLog
	layout  layout.Override
	model   string
	loading atomic.Bool
}

// NewSession 创建空白 session。An empty id gets a random one.
func NewSession(id string, agent *Agent, undoCapacity int, log *logger.Logger) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		ID:     id,
		agent:  agent,
		log:    log.With("session", id),
		sem:    semaphore.NewWeighted(1),
		rec:    document.NewReconciler(undoCapacity),
		msgs:   document.NewMessageLog(),
		layout: layout.Auto,
	}
}

func (s *Session) acquire() error {
	if !s.sem.TryAcquire(1) {
		return ErrBusy
	}
	return nil
}

// Loading reports whether a model call is in flight.
func (s *Session) Loading() bool { return s.loading.Load() }

// Generate 根据原始赛后记录生成整篇稿件。
func (s *Session) Generate(ctx context.Context, raw string) (Outcome, error) {
	if strings.TrimSpace(raw) == "" {
		return Outcome{}, ErrEmptyReport
	}
	if err := s.acquire(); err != nil {
		return Outcome{}, err
	}
	defer s.sem.Release(1)

	s.mu.Lock()
	s.msgs.Append(document.RoleUser, strings.TrimSpace(raw))
	s.mu.Unlock()

	return s.run(ctx, document.TargetWhole, func() (Result, error) {
		return s.agent.Draft(ctx, raw)
	})
}

// Instruct 按操作员指令修订当前稿件。The active target scopes the edit.
// A blank instruction does nothing.
func (s *Session) Instruct(ctx context.Context, instruction, selection string) (Outcome, error) {
	if strings.TrimSpace(instruction) == "" {
		return Outcome{Skipped: true}, nil
	}
	if err := s.acquire(); err != nil {
		return Outcome{}, err
	}
	defer s.sem.Release(1)

	s.mu.Lock()
	s.msgs.Append(document.RoleUser, userMessage(instruction, selection))
	current := s.rec.Document()
	target := s.rec.Target()
	s.mu.Unlock()

	return s.run(ctx, target, func() (Result, error) {
		return s.agent.Revise(ctx, current, target, instruction, selection)
	})
}

func userMessage(instruction, selection string) string {
	instruction = strings.TrimSpace(instruction)
	if sel := strings.TrimSpace(selection); sel != "" {
		return fmt.Sprintf("On this selection:\n%q\n\n%s", sel, instruction)
	}
	return instruction
}

// run performs the model call outside the state lock, then merges and logs
// under it. Failures leave the document untouched.
func (s *Session) run(ctx context.Context, target document.Target, invoke func() (Result, error)) (Outcome, error) {
	s.loading.Store(true)
	res, err := invoke()
	s.loading.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		var gerr *GuardrailError
		if errors.As(err, &gerr) {
			s.msgs.Append(document.RoleAssistant, fmt.Sprintf(
				"Response rejected by guardrails:\n%s\n\nRaw output:\n%s",
				guardrails.Summary(gerr.Violations), gerr.Raw))
		} else {
			s.msgs.Append(document.RoleAssistant, "Error: "+err.Error())
		}
		s.log.Warn("instruction failed", "target", target, "error", err)
		return Outcome{}, err
	}

	s.rec.Apply(res.Fragment)
	s.model = res.Model
	s.msgs.Append(document.RoleAssistant, res.Raw)

	doc := s.rec.Document()
	advisories := s.agent.Invoker().Scanner().BrandCheck(doc.EditorialText())
	if len(advisories) > 0 {
		s.msgs.Append(document.RoleSystem, brandNotice(advisories))
	}
	s.log.Info("fragment merged", "model", res.Model, "kind", res.Fragment.Kind.String(), "target", target, "advisories", len(advisories))

	return Outcome{
		Kind:       res.Fragment.Kind,
		KindName:   res.Fragment.Kind.String(),
		Model:      res.Model,
		Raw:        res.Raw,
		Advisories: advisories,
		Template:   layout.Resolve(doc.Body, s.layout),
	}, nil
}

func brandNotice(vs []guardrails.Violation) string {
	terms := make([]string, len(vs))
	for i, v := range vs {
		terms[i] = v.Match
	}
	return "Brand check: avoid " + strings.Join(terms, ", ")
}

// Undo 撤销最近一次修改。It reports false when there is nothing to undo.
func (s *Session) Undo() (bool, error) {
	if err := s.acquire(); err != nil {
		return false, err
	}
	defer s.sem.Release(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Undo(), nil
}

// Edit 手动修改单个字段。
func (s *Session) Edit(field document.Field, value string) (bool, error) {
	if err := s.acquire(); err != nil {
		return false, err
	}
	defer s.sem.Release(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Edit(field, value), nil
}

// SetMedia replaces the media and provenance fields.
func (s *Session) SetMedia(m document.Document) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.sem.Release(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.SetMedia(m)
	return nil
}

// SetTarget toggles the target field and returns the active one.
func (s *Session) SetTarget(t document.Target) document.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.SetTarget(t)
}

// SetLayout stores the manual template override.
func (s *Session) SetLayout(o layout.Override) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = o
}

// Reset 清空文档、历史与消息。
func (s *Session) Reset() error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.sem.Release(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Reset()
	s.msgs.Clear()
	s.layout = layout.Auto
	s.model = ""
	return nil
}

// Load installs a saved build, replacing document and messages.
func (s *Session) Load(doc document.Document, msgs []document.Message, model string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.sem.Release(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Replace(doc)
	s.msgs.Replace(msgs)
	s.model = model
	return nil
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := s.rec.Document()
	return State{
		ID:        s.ID,
		Document:  doc,
		Messages:  s.msgs.All(),
		Target:    s.rec.Target(),
		Layout:    s.layout,
		Template:  layout.Resolve(doc.Body, s.layout),
		UndoDepth: s.rec.Depth(),
		Loading:   s.loading.Load(),
		Model:     s.model,
	}
}
