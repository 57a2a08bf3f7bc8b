// Package wordpress is a minimal client for the WordPress REST API surface
// the publisher needs: media upload and future-dated post creation.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/models"
)

const (
	mediaUploadTimeout = 120 * time.Second
	postCreateTimeout  = 90 * time.Second

	maxSlugLength = 70
)

var nonWordRe = regexp.MustCompile(`[^\w]+`)

// Client talks to WordPress sites using per-author application passwords
// over HTTP Basic auth.
type Client struct {
	client *http.Client
	logger logger.Logger
}

// NewClient creates a WordPress client.
func NewClient(log logger.Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: mediaUploadTimeout},
		logger: log,
	}
}

// Post is the payload for a scheduled post. ScheduledAt is sent as date_gmt
// with status "future" so the remote site publishes it later, not
// immediately.
type Post struct {
	Title           string
	Content         string
	ScheduledAt     time.Time
	CategoryID      int
	FeaturedMediaID int64
}

type postPayload struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	DateGMT       string `json:"date_gmt"`
	Author        int    `json:"author"`
	Slug          string `json:"slug"`
	Categories    []int  `json:"categories,omitempty"`
	FeaturedMedia int64  `json:"featured_media,omitempty"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// UploadMedia uploads the image at path as a media attachment and returns
// its media id.
func (c *Client) UploadMedia(ctx context.Context, siteURL string, author models.Author, path, title string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return 0, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return 0, fmt.Errorf("read image: %w", err)
	}
	if err := writer.WriteField("title", title); err != nil {
		return 0, fmt.Errorf("write title field: %w", err)
	}
	if err := writer.WriteField("alt_text", "Featured Image for: "+title); err != nil {
		return 0, fmt.Errorf("write alt_text field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("finalize multipart body: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, mediaUploadTimeout)
	defer cancel()

	endpoint := strings.TrimRight(siteURL, "/") + "/wp-json/wp/v2/media"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, &body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(author.Username, author.AppPassword)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))

	var created createdResponse
	if err := c.do(req, &created); err != nil {
		return 0, fmt.Errorf("upload media to %s: %w", siteURL, err)
	}

	c.logger.Info("uploaded feature image",
		logger.String("site_url", siteURL),
		logger.Int64("media_id", created.ID),
	)
	return created.ID, nil
}

// CreatePost creates a scheduled post and returns the remote post id.
func (c *Client) CreatePost(ctx context.Context, siteURL string, author models.Author, post Post) (int64, error) {
	payload := postPayload{
		Title:         post.Title,
		Content:       post.Content,
		Status:        "future",
		DateGMT:       post.ScheduledAt.UTC().Format(time.RFC3339),
		Author:        author.UserID,
		Slug:          Slug(post.Title),
		FeaturedMedia: post.FeaturedMediaID,
	}
	if post.CategoryID > 0 {
		payload.Categories = []int{post.CategoryID}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal post payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, postCreateTimeout)
	defer cancel()

	endpoint := strings.TrimRight(siteURL, "/") + "/wp-json/wp/v2/posts"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(author.Username, author.AppPassword)
	req.Header.Set("Content-Type", "application/json")

	var created createdResponse
	if err := c.do(req, &created); err != nil {
		return 0, fmt.Errorf("create post on %s: %w", siteURL, err)
	}

	c.logger.Info("scheduled post created",
		logger.String("site_url", siteURL),
		logger.String("title", post.Title),
		logger.Int64("post_id", created.ID),
		logger.Time("scheduled_for", post.ScheduledAt),
	)
	return created.ID, nil
}

func (c *Client) do(req *http.Request, out *createdResponse) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Slug derives a URL slug from a post title: lowercase, runs of non-word
// characters collapsed to hyphens, trimmed to 70 characters.
func Slug(title string) string {
	slug := nonWordRe.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}
