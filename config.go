package dentmark

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything the engine needs. Secrets can live in the file
// but environment variables win, so deployments keep credentials out of
// config files.
type Config struct {
	DBPath       string   `yaml:"db_path"`
	Feeds        []string `yaml:"feeds"`
	TopArticles  int      `yaml:"top_articles"`
	Workers      int      `yaml:"workers"`
	DocumentsDir string   `yaml:"documents_dir"`
	ImageDir     string   `yaml:"image_dir"`

	CORSOrigins []string `yaml:"cors_origins"`

	// Provider selects the text generation backend: "openai" or "ollama".
	Provider string `yaml:"provider"`

	OpenAI struct {
		APIKey           string `yaml:"api_key"`
		SummaryModel     string `yaml:"summary_model"`
		CaptionModel     string `yaml:"caption_model"`
		ImagePromptModel string `yaml:"image_prompt_model"`
		ImageModel       string `yaml:"image_model"`
	} `yaml:"openai"`

	Ollama struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"ollama"`

	Cloudinary struct {
		CloudName string `yaml:"cloud_name"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"cloudinary"`

	Instagram struct {
		AccessToken       string `yaml:"access_token"`
		PageID            string `yaml:"page_id"`
		BusinessAccountID string `yaml:"business_account_id"`
	} `yaml:"instagram"`
}

// DefaultConfig returns the configuration the clinic runs with out of the
// box: the curated dental news sources and the settled model choices.
func DefaultConfig() *Config {
	cfg := &Config{
		DBPath: "dentmark.db",
		Feeds: []string{
			"http://www.agd.org/myagd/subscriptions/rss/kyt_hottopics.xml",
			"http://www.agd.org/myagd/subscriptions/rss/kyt_factoidweek.xml",
			"https://www.dentalhealth.org/handlers/rss.ashx?feed=1",
			"https://askthedentist.com/feed/",
		},
		TopArticles:  5,
		Workers:      4,
		DocumentsDir: "documents",
		ImageDir:     "generated_images",
		CORSOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
		Provider: "openai",
	}
	cfg.OpenAI.SummaryModel = "gpt-4o"
	cfg.OpenAI.CaptionModel = "gpt-4.1-nano"
	cfg.OpenAI.ImagePromptModel = "gpt-4.1-nano"
	cfg.OpenAI.ImageModel = "gpt-image-1"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.Model = "llama3"
	return cfg
}

// DefaultConfigYAML renders the default configuration as YAML, for
// writing a starter config file.
func DefaultConfigYAML() ([]byte, error) {
	return yaml.Marshal(DefaultConfig())
}

// LoadConfig reads a YAML config file over the defaults, then applies
// environment overrides. An empty path returns defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	override(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	override(&c.Instagram.AccessToken, "INSTAGRAM_ACCESS_TOKEN")
	override(&c.Instagram.PageID, "FACEBOOK_PAGE_ID")
	override(&c.Instagram.BusinessAccountID, "INSTAGRAM_BUSINESS_ACCOUNT_ID")
	override(&c.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	override(&c.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	override(&c.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")
}

func override(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
