package generator

import (
	"context"
	"errors"
	"fmt"

	"racedesk/config"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。每次调用只针对一个模型标识。
type LLMClient interface {
	Complete(ctx context.Context, model string, prompt Prompt) (string, error)
}

// ModelLister is implemented by clients that can report which model
// identifiers the credential may use.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	APIKey   string
	BaseURL  string
}

// NewLLMClient 根据 provider 构建具体实现。
func NewLLMClient(ctx context.Context, cfg *LLMSettings) (LLMClient, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return NewGeminiLLM(ctx, cfg)
	case config.ProviderOpenAI:
		return NewOpenAILLMFromConfig(cfg)
	}
	return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
}
