package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiLLM implements LLMClient and ModelLister with the Google GenAI SDK.
// The client is built once and shared by every candidate call.
type GeminiLLM struct {
	client *genai.Client
}

func NewGeminiLLM(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiLLM{client: client}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, model string, prompt Prompt) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt.Text()), nil)
	if err != nil {
		return "", wrapGeminiError(err)
	}
	out := resp.Text()
	if strings.TrimSpace(out) == "" {
		return "", errors.New("gemini: empty response")
	}
	return out, nil
}

// ListModels returns every model name visible to the key, "models/" prefix included.
func (g *GeminiLLM) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, wrapGeminiError(err)
		}
		names = append(names, m.Name)
	}
	return names, nil
}

func wrapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrModelUnsupported, err)
	}
	return err
}
