package ai

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama implements Generator against a local Ollama server, for running
// the chain without a paid API. It cannot generate images.
type Ollama struct {
	client *api.Client
	model  string
}

var _ Generator = (*Ollama)(nil)

// NewOllama creates the provider, preferring environment-based client
// configuration and falling back to the given base URL.
func NewOllama(baseURL, model string) (*Ollama, error) {
	if model == "" {
		model = "llama3"
	}
	client, err := api.ClientFromEnvironment()
	if err != nil {
		parsedURL, parseErr := url.Parse(baseURL)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid base URL: %w", parseErr)
		}
		client = api.NewClient(parsedURL, nil)
	}
	return &Ollama{client: client, model: model}, nil
}

func (o *Ollama) Summary(ctx context.Context, title, url string) string {
	text, err := o.generate(ctx, fmt.Sprintf(summaryPrompt, title, url), 0.3)
	if err != nil {
		log.Printf("ai: ollama summary failed for %q: %v", title, err)
		return SummaryFailed
	}
	if text == "" {
		return NoSummaryReturned
	}
	return text
}

func (o *Ollama) Caption(ctx context.Context, summary string) string {
	text, err := o.generate(ctx, fmt.Sprintf(captionPrompt, summary), 0.7)
	if err != nil {
		log.Printf("ai: ollama caption failed: %v", err)
		return CaptionFailed
	}
	if text == "" {
		return NoCaptionReturned
	}
	return text
}

func (o *Ollama) ImagePrompt(ctx context.Context, summary string) string {
	text, err := o.generate(ctx, fmt.Sprintf(imagePromptPrompt, summary), 0.7)
	if err != nil {
		log.Printf("ai: ollama image prompt failed: %v", err)
		return ImagePromptFailed
	}
	if text == "" {
		return NoImagePromptReturned
	}
	return text
}

// generate runs a non-streaming completion, accumulating the response.
func (o *Ollama) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: new(bool), // false
		Options: map[string]interface{}{
			"temperature": temperature,
		},
	}

	var fullResponse strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		fullResponse.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(fullResponse.String()), nil
}
