package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig selects the models for each step of the chain.
type OpenAIConfig struct {
	APIKey           string
	BaseURL          string // override for tests; defaults to the public API
	SummaryModel     string
	CaptionModel     string
	ImagePromptModel string
	ImageModel       string
	ImageDir         string
}

// OpenAI implements Generator and ImageGenerator against the OpenAI HTTP
// API. Summaries go through the responses API with the web_search tool so
// the model can read the article behind the URL; captions and image prompts
// are plain chat completions.
type OpenAI struct {
	cfg    OpenAIConfig
	client *http.Client
}

var (
	_ Generator      = (*OpenAI)(nil)
	_ ImageGenerator = (*OpenAI)(nil)
)

// NewOpenAI creates the provider. Model names default to the ones the
// marketing team settled on; the API key is required at call time, not here.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.SummaryModel == "" {
		cfg.SummaryModel = "gpt-4o"
	}
	if cfg.CaptionModel == "" {
		cfg.CaptionModel = "gpt-4.1-nano"
	}
	if cfg.ImagePromptModel == "" {
		cfg.ImagePromptModel = "gpt-4.1-nano"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gpt-image-1"
	}
	if cfg.ImageDir == "" {
		cfg.ImageDir = "generated_images"
	}
	return &OpenAI{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenAI) Summary(ctx context.Context, title, url string) string {
	prompt := fmt.Sprintf(summaryPrompt, title, url)
	text, err := o.respond(ctx, o.cfg.SummaryModel, prompt)
	if err != nil {
		log.Printf("ai: failed to generate summary for %q: %v", title, err)
		return SummaryFailed
	}
	if text = strings.TrimSpace(text); text == "" {
		return NoSummaryReturned
	}
	return text
}

func (o *OpenAI) Caption(ctx context.Context, summary string) string {
	text, err := o.chat(ctx, o.cfg.CaptionModel, fmt.Sprintf(captionPrompt, summary))
	if err != nil {
		log.Printf("ai: failed to generate caption: %v", err)
		return CaptionFailed
	}
	if text = strings.TrimSpace(text); text == "" {
		return NoCaptionReturned
	}
	return text
}

func (o *OpenAI) ImagePrompt(ctx context.Context, summary string) string {
	text, err := o.chat(ctx, o.cfg.ImagePromptModel, fmt.Sprintf(imagePromptPrompt, summary))
	if err != nil {
		log.Printf("ai: failed to generate image prompt: %v", err)
		return ImagePromptFailed
	}
	if text = strings.TrimSpace(text); text == "" {
		return NoImagePromptReturned
	}
	return text
}

// GenerateImage renders the prompt and writes the PNG under the image dir,
// returning the file path. Errors propagate: there is no sentinel image.
func (o *OpenAI) GenerateImage(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  o.cfg.ImageModel,
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	}

	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := o.post(ctx, "/images/generations", payload, &result); err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return "", fmt.Errorf("no image data returned from image generation API")
	}

	raw, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("failed to decode image data: %w", err)
	}

	if err := os.MkdirAll(o.cfg.ImageDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}
	path := filepath.Join(o.cfg.ImageDir, fmt.Sprintf("image_%s.png", uuid.New().String()))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return path, nil
}

// chat issues a chat-completions call and returns the first choice's text.
func (o *OpenAI) chat(ctx context.Context, model, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := o.post(ctx, "/chat/completions", payload, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}

// respond issues a responses-API call with the web_search tool enabled and
// concatenates all output_text parts.
func (o *OpenAI) respond(ctx context.Context, model, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": model,
		"input": prompt,
		"tools": []map[string]string{{"type": "web_search"}},
	}

	var result struct {
		Output []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := o.post(ctx, "/responses", payload, &result); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, item := range result.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				text.WriteString(part.Text)
			}
		}
	}
	return text.String(), nil
}

func (o *OpenAI) post(ctx context.Context, path string, payload, result interface{}) error {
	if o.cfg.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY not set")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
