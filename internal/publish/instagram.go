package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v18.0"

// DefaultImageURL is posted when no generated image is supplied.
const DefaultImageURL = "https://res.cloudinary.com/daqhgqqcz/image/upload/v1751690835/Download_Indonesian_dental_clinic_cym9gk.jpg"

// InstagramError wraps failures from the Graph API so handlers can map them
// to a dedicated status code.
type InstagramError struct {
	Op  string
	Err error
}

func (e *InstagramError) Error() string {
	return fmt.Sprintf("instagram %s: %v", e.Op, e.Err)
}

func (e *InstagramError) Unwrap() error { return e.Err }

// InstagramConfig carries the Graph API credentials for the clinic account.
type InstagramConfig struct {
	AccessToken       string
	PageID            string
	BusinessAccountID string
	BaseURL           string // override for tests
}

// Instagram publishes posts through the Graph API's two-phase flow: create
// a media container for the image, then publish the container.
type Instagram struct {
	cfg    InstagramConfig
	client *http.Client
}

func NewInstagram(cfg InstagramConfig) *Instagram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGraphBaseURL
	}
	return &Instagram{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether the account credentials are present.
func (i *Instagram) Configured() bool {
	return i.cfg.AccessToken != "" && i.cfg.BusinessAccountID != ""
}

// PostResult reports a successful publish.
type PostResult struct {
	PostID      string `json:"post_id"`
	ContainerID string `json:"container_id"`
}

// Post publishes a caption with an image. An empty imageURL falls back to
// the clinic's stock image so caption-only requests still produce a post.
func (i *Instagram) Post(ctx context.Context, caption, imageURL string) (*PostResult, error) {
	if !i.Configured() {
		return nil, &InstagramError{Op: "post", Err: fmt.Errorf("credentials not configured")}
	}
	if imageURL == "" {
		imageURL = DefaultImageURL
	}

	containerID, err := i.createContainer(ctx, caption, imageURL)
	if err != nil {
		return nil, &InstagramError{Op: "create media container", Err: err}
	}

	postID, err := i.publishContainer(ctx, containerID)
	if err != nil {
		return nil, &InstagramError{Op: "publish media container", Err: err}
	}

	log.Printf("publish: instagram post %s created", postID)
	return &PostResult{PostID: postID, ContainerID: containerID}, nil
}

func (i *Instagram) createContainer(ctx context.Context, caption, imageURL string) (string, error) {
	id, err := i.post(ctx, "media", url.Values{
		"image_url": {imageURL},
		"caption":   {caption},
	})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("no container id returned")
	}
	return id, nil
}

func (i *Instagram) publishContainer(ctx context.Context, containerID string) (string, error) {
	return i.post(ctx, "media_publish", url.Values{
		"creation_id": {containerID},
	})
}

// post issues a form POST to the business account endpoint and returns the
// id field of the response.
func (i *Instagram) post(ctx context.Context, endpoint string, form url.Values) (string, error) {
	form.Set("access_token", i.cfg.AccessToken)

	target := fmt.Sprintf("%s/%s/%s", i.cfg.BaseURL, i.cfg.BusinessAccountID, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("graph API %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode graph API response: %w", err)
	}
	return result.ID, nil
}
