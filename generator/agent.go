package generator

import (
	"context"
	"errors"

	"racedesk/document"
)

// Agent 负责构建提示词并交给 Invoker 生成或修订稿件。
type Agent struct {
	invoker     *Invoker
	targetWords int
}

func NewAgent(invoker *Invoker, targetWords int) (*Agent, error) {
	if invoker == nil {
		return nil, errors.New("invoker is required")
	}
	return &Agent{invoker: invoker, targetWords: targetWords}, nil
}

// Invoker exposes the underlying model chain.
func (a *Agent) Invoker() *Invoker { return a.invoker }

func (a *Agent) banned() []string { return a.invoker.Scanner().BannedTerms() }

// Draft 根据原始赛后记录生成整篇稿件。
func (a *Agent) Draft(ctx context.Context, raw string) (Result, error) {
	prompt := BuildInitialPrompt(raw, a.targetWords, a.banned())
	return a.invoker.Invoke(ctx, prompt, document.TargetWhole)
}

// Revise 基于当前稿件和操作员指令修订，target 决定整篇还是单字段。
func (a *Agent) Revise(ctx context.Context, current document.Document, target document.Target, instruction, selection string) (Result, error) {
	prompt := BuildRevisionPrompt(current, target, instruction, selection, a.banned())
	return a.invoker.Invoke(ctx, prompt, target)
}
