package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"racedesk/config"
	"racedesk/document"
	"racedesk/guardrails"
	"racedesk/logger"
)

// InvokerOptions controls the fallback chain.
type InvokerOptions struct {
	// Models is the static candidate list, highest preference first.
	Models []string
	// FailFast stops the chain on transport failures that are not an
	// unsupported-model signal.
	FailFast bool
	// SkipInvalid advances to the next candidate on unparseable output instead
	// of degrading immediately.
	SkipInvalid bool
	// RequestTimeout bounds each candidate call. Zero means no per-call bound.
	RequestTimeout time.Duration
	// UseListing pre-filters candidates by the provider's model listing.
	UseListing bool
}

// OptionsFromConfig maps config policies onto invoker options.
func OptionsFromConfig(cfg config.Config) InvokerOptions {
	return InvokerOptions{
		Models:         append([]string(nil), cfg.Models...),
		FailFast:       cfg.TransportErrors == config.TransportFailFast,
		SkipInvalid:    cfg.InvalidOutput == config.InvalidNext,
		RequestTimeout: cfg.RequestTimeout,
		UseListing:     cfg.ListModels(),
	}
}

// Invoker 按优先级依次尝试候选模型，返回第一个可用且通过校验的片段。
type Invoker struct {
	llm     LLMClient
	scanner *guardrails.Scanner
	log     *logger.Logger
	opts    InvokerOptions

	mu        sync.Mutex
	available []string
}

func NewInvoker(llm LLMClient, scanner *guardrails.Scanner, log *logger.Logger, opts InvokerOptions) (*Invoker, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if scanner == nil {
		scanner = guardrails.New()
	}
	if log == nil {
		log = logger.Nop()
	}
	opts.Models = append([]string(nil), opts.Models...)
	return &Invoker{llm: llm, scanner: scanner, log: log, opts: opts}, nil
}

// Scanner returns the guardrail scanner used on every fragment.
func (i *Invoker) Scanner() *guardrails.Scanner { return i.scanner }

// Models returns the static candidate list.
func (i *Invoker) Models() []string { return append([]string(nil), i.opts.Models...) }

// Invoke runs prompt against the filtered candidate list.
func (i *Invoker) Invoke(ctx context.Context, prompt Prompt, target document.Target) (Result, error) {
	return i.InvokeCandidates(ctx, prompt, target, i.Candidates(ctx))
}

// InvokeCandidates tries each candidate exactly once, in order. The chain
// stops at the first candidate whose output validates (or degrades) and
// passes the guardrails. Guardrail rejections and cancellation are terminal.
func (i *Invoker) InvokeCandidates(ctx context.Context, prompt Prompt, target document.Target, candidates []string) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoEligibleModel
	}
	i.log.Debug("invoking model chain", "candidates", len(candidates), "target", target, "prompt_chars", len(prompt.Text()))

	var (
		last         error
		invalidRaw   string
		invalidModel string
		invalidAt    int
	)
	for idx, model := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{}, &ModelError{Model: model, Kind: KindCanceled, Err: err}
		}

		raw, err := i.call(ctx, model, prompt)
		if err != nil {
			merr := i.classify(ctx, model, err)
			if !merr.Retryable(i.opts.FailFast) {
				i.log.Warn("model call failed, stopping chain", "model", model, "kind", merr.Kind, "error", merr.Err)
				return Result{}, merr
			}
			i.log.Warn("model call failed, trying next candidate", "model", model, "kind", merr.Kind, "error", merr.Err)
			last = merr
			continue
		}

		frag, perr := Validate(Extract(raw), target)
		if perr != nil {
			if i.opts.SkipInvalid {
				i.log.Warn("model output invalid, trying next candidate", "model", model, "error", perr)
				last = perr
				invalidRaw, invalidModel, invalidAt = raw, model, idx+1
				continue
			}
			i.log.Warn("model output invalid, degrading to body", "model", model, "error", perr)
			frag = document.Degraded(strings.TrimSpace(raw))
		}
		return i.accept(model, raw, frag, idx+1)
	}

	if invalidModel != "" {
		i.log.Warn("no candidate produced valid output, degrading last response", "model", invalidModel)
		return i.accept(invalidModel, invalidRaw, document.Degraded(strings.TrimSpace(invalidRaw)), invalidAt)
	}
	return Result{}, fmt.Errorf("all %d model candidates failed: %w", len(candidates), last)
}

func (i *Invoker) accept(model, raw string, frag document.Fragment, attempts int) (Result, error) {
	if vs := i.scanner.Scan(frag.Payload()); len(vs) > 0 {
		i.log.Warn("guardrail rejected model output", "model", model, "violations", len(vs))
		return Result{}, &GuardrailError{Model: model, Violations: vs, Raw: raw}
	}
	i.log.Info("model output accepted", "model", model, "attempt", attempts, "kind", frag.Kind.String())
	return Result{Fragment: frag, Model: model, Raw: raw, Attempts: attempts}, nil
}

func (i *Invoker) call(ctx context.Context, model string, prompt Prompt) (string, error) {
	if i.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.opts.RequestTimeout)
		defer cancel()
	}
	return i.llm.Complete(ctx, model, prompt)
}

// classify tags err. Cancellation of the caller's context wins over any
// provider signal; a per-call timeout counts as a transport failure.
func (i *Invoker) classify(ctx context.Context, model string, err error) *ModelError {
	switch {
	case ctx.Err() != nil:
		return &ModelError{Model: model, Kind: KindCanceled, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ModelError{Model: model, Kind: KindTransport, Err: err}
	case looksUnsupported(err):
		return &ModelError{Model: model, Kind: KindUnsupported, Err: err}
	}
	return &ModelError{Model: model, Kind: KindTransport, Err: err}
}

// Candidates returns the static list filtered by the provider's listing.
// Listing failures and empty listings fall back to the static list; a
// listing that shares nothing with it yields an empty slice.
func (i *Invoker) Candidates(ctx context.Context) []string {
	static := i.Models()
	if !i.opts.UseListing {
		return static
	}
	avail, err := i.listAvailable(ctx, false)
	if err != nil {
		i.log.Warn("model listing failed, using static candidates", "error", err)
		return static
	}
	if len(avail) == 0 {
		return static
	}
	return intersect(static, avail)
}

// listAvailable queries the provider once per invoker unless refresh is set.
// Only non-empty successful listings are cached.
func (i *Invoker) listAvailable(ctx context.Context, refresh bool) ([]string, error) {
	lister, ok := i.llm.(ModelLister)
	if !ok {
		return nil, nil
	}
	i.mu.Lock()
	cached := i.available
	i.mu.Unlock()
	if cached != nil && !refresh {
		return cached, nil
	}

	names, err := lister.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = normalizeModelName(n); n != "" {
			out = append(out, n)
		}
	}
	if len(out) > 0 {
		i.mu.Lock()
		i.available = out
		i.mu.Unlock()
	}
	return out, nil
}

// HealthReport summarizes which candidates the credential can reach.
type HealthReport struct {
	OK            bool     `json:"ok" yaml:"ok"`
	Available     []string `json:"available,omitempty" yaml:"available,omitempty"`
	Supported     []string `json:"supported" yaml:"supported"`
	DefaultModel  string   `json:"defaultModel,omitempty" yaml:"defaultModel,omitempty"`
	FallbackChain []string `json:"fallbackChain" yaml:"fallbackChain"`
	Error         string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Health refreshes the listing and reports the effective chain.
func (i *Invoker) Health(ctx context.Context) HealthReport {
	static := i.Models()
	if _, ok := i.llm.(ModelLister); !ok || !i.opts.UseListing {
		return healthFor(static, nil)
	}
	avail, err := i.listAvailable(ctx, true)
	if err != nil {
		rep := healthFor(static, nil)
		rep.OK = false
		rep.Error = err.Error()
		return rep
	}
	if len(avail) == 0 {
		return healthFor(static, nil)
	}
	return healthFor(intersect(static, avail), avail)
}

func healthFor(supported, available []string) HealthReport {
	rep := HealthReport{
		OK:            len(supported) > 0,
		Available:     available,
		Supported:     supported,
		FallbackChain: supported,
	}
	if len(supported) > 0 {
		rep.DefaultModel = supported[0]
	} else {
		rep.Error = ErrNoEligibleModel.Error()
	}
	return rep
}

func normalizeModelName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "models/")
}

// intersect keeps the order of static.
func intersect(static, avail []string) []string {
	set := make(map[string]bool, len(avail))
	for _, a := range avail {
		set[a] = true
	}
	out := make([]string, 0, len(static))
	for _, m := range static {
		if set[m] {
			out = append(out, m)
		}
	}
	return out
}
