// Package source contains a client for the remote post source.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/entities"
)

//go:generate mockgen -destination=./mock/source.go -package=mock -source=source.go

// Source provides read-only access to the remote post collection.
type Source interface {
	ListPosts(ctx context.Context) ([]entities.Post, error)
	GetPost(ctx context.Context, id string) (entities.Post, error)
}

// Client implements Source over HTTP.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates new instance of Client. url is the posts collection
// endpoint, single posts are fetched from url/<id>.
func NewClient(u string, timeout time.Duration) *Client {
	return &Client{
		url: strings.TrimRight(u, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) ListPosts(ctx context.Context) ([]entities.Post, error) {
	var out struct {
		Posts []entities.Post `json:"posts"`
	}

	if err := c.get(ctx, c.url, &out); err != nil {
		return nil, err
	}

	return out.Posts, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (entities.Post, error) {
	var out entities.Post

	if err := c.get(ctx, fmt.Sprintf("%s/%s", c.url, url.PathEscape(id)), &out); err != nil {
		return entities.Post{}, err
	}

	return out, nil
}

func (c *Client) get(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close() // nolint

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
