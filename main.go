package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"racedesk/config"
	"racedesk/generator"
	"racedesk/guardrails"
	"racedesk/logger"
)

var (
	configPath string
	verbose    bool
	useMock    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "racedesk",
		Short: "Turn raw race reports into structured, on-brand editorial documents",
		Long: `racedesk drafts and revises race-report documents with a Gemini (or
OpenAI-compatible) model, rejecting output that carries markup and keeping a
bounded undo history.

The API key is read from GEMINI_API_KEY or GEMINI_KEY (OPENAI_API_KEY or
LLM_API_KEY when provider is openai).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/racedesk.yaml", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
	root.PersistentFlags().BoolVar(&useMock, "mock", false, "use the offline mock model instead of a provider")

	root.AddCommand(newGenerateCmd(), newModelsCmd(), newServeCmd(), newBuildsCmd())
	return root
}

// app bundles what every model-backed command needs.
type app struct {
	cfg   config.Config
	log   *logger.Logger
	agent *generator.Agent
}

func loadConfig() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.Log.Mode, verbose)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	llm, err := buildLLM(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	inv, err := generator.NewInvoker(llm, guardrails.New(cfg.BannedTerms...), log, generator.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	agent, err := generator.NewAgent(inv, cfg.TargetWordCount)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, agent: agent}, nil
}

func buildLLM(ctx context.Context, cfg *config.Config) (generator.LLMClient, error) {
	if useMock {
		return generator.NewMockLLM(), nil
	}
	if err := cfg.ResolveCredential(); err != nil {
		return nil, err
	}
	return generator.NewLLMClient(ctx, &generator.LLMSettings{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
}
