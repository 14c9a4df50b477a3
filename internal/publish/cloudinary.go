package publish

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const defaultCloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// CloudinaryConfig carries the account credentials for signed uploads.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	BaseURL   string // override for tests
}

// Cloudinary uploads generated images so Instagram can fetch them by URL.
type Cloudinary struct {
	cfg    CloudinaryConfig
	client *http.Client
}

func NewCloudinary(cfg CloudinaryConfig) *Cloudinary {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCloudinaryBaseURL
	}
	return &Cloudinary{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether the account credentials are present.
func (c *Cloudinary) Configured() bool {
	return c.cfg.CloudName != "" && c.cfg.APIKey != "" && c.cfg.APISecret != ""
}

// Upload pushes a local image file and returns its public https URL.
// publicID is optional; when set, an existing asset with the same id is
// overwritten.
func (c *Cloudinary) Upload(ctx context.Context, imagePath, publicID string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("cloudinary credentials not configured")
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	params := map[string]string{
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		"overwrite": "true",
	}
	if publicID != "" {
		params["public_id"] = publicID
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.cfg.APIKey

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range params {
		if err := mw.WriteField(key, value); err != nil {
			return "", err
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/image/upload", c.cfg.BaseURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("cloudinary upload %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode cloudinary response: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response missing secure_url")
	}
	return result.SecureURL, nil
}

// sign builds the request signature: SHA-1 over the alphabetically sorted
// params joined as a query string, with the API secret appended.
func (c *Cloudinary) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.cfg.APISecret))
	return hex.EncodeToString(sum[:])
}
