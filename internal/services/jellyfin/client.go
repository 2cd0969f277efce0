package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"favsync/internal/config"
	"favsync/internal/services"
)

// HTTPDoer describes the HTTP client used by the catalog service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Catalog defines the catalog operations the sync pipeline consumes.
type Catalog interface {
	FavoriteItems(ctx context.Context) ([]Item, error)
	ChildTracks(ctx context.Context, parentID string) ([]Item, error)
	PrimaryImage(ctx context.Context, itemID string) ([]byte, string, error)
}

// Client talks to a Jellyfin-compatible server.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	client  HTTPDoer
	limiter *rate.Limiter
}

// NewClient constructs a catalog client from configuration.
func NewClient(cfg *config.Config) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return NewClientWithHTTP(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, cfg.Jellyfin.UserID, cfg.Jellyfin.RequestsPerSecond, httpClient)
}

// NewClientWithHTTP constructs a catalog client with an explicit HTTP doer,
// primarily for tests.
func NewClientWithHTTP(baseURL, apiKey, userID string, requestsPerSecond float64, client HTTPDoer) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 8
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		userID:  strings.TrimSpace(userID),
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// FavoriteItems lists every favorited audio item, album, and artist for the
// configured user.
func (c *Client) FavoriteItems(ctx context.Context) ([]Item, error) {
	query := url.Values{}
	query.Set("includeItemTypes", strings.Join([]string{string(KindAudio), string(KindAlbum), string(KindArtist)}, ","))
	query.Set("recursive", "true")
	query.Set("isFavorite", "true")
	query.Set("fields", "Path")
	return c.listItems(ctx, "favorites", query)
}

// ChildTracks lists every audio item under the given container, recursively.
func (c *Client) ChildTracks(ctx context.Context, parentID string) ([]Item, error) {
	query := url.Values{}
	query.Set("includeItemTypes", string(KindAudio))
	query.Set("recursive", "true")
	query.Set("parentId", parentID)
	query.Set("fields", "Path")
	return c.listItems(ctx, "children of "+parentID, query)
}

func (c *Client) listItems(ctx context.Context, operation string, query url.Values) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/Users/%s/Items?%s", c.baseURL, url.PathEscape(c.userID), query.Encode())
	body, _, err := c.get(ctx, operation, endpoint)
	if err != nil {
		return nil, err
	}

	var response itemsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "catalog", operation, "decode response", err)
	}

	items := make([]Item, 0, len(response.Items))
	for _, raw := range response.Items {
		item, err := raw.toItem()
		if err != nil {
			return nil, services.Wrap(services.ErrUnavailable, "catalog", operation, "parse item", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// PrimaryImage fetches the primary image bytes and content type for an item.
func (c *Client) PrimaryImage(ctx context.Context, itemID string) ([]byte, string, error) {
	endpoint := fmt.Sprintf("%s/Items/%s/Images/Primary", c.baseURL, url.PathEscape(itemID))
	body, contentType, err := c.get(ctx, "primary image", endpoint)
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

func (c *Client) get(ctx context.Context, operation, endpoint string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", services.Wrap(services.ErrUnavailable, "catalog", operation, "rate limit wait", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", services.Wrap(services.ErrUnavailable, "catalog", operation, "build request", err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("Accept", "application/json, image/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", services.Wrap(services.ErrUnavailable, "catalog", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", services.Wrap(services.ErrNotFound, "catalog", operation, "resource missing", nil)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", services.Wrap(
			services.ErrUnavailable,
			"catalog",
			operation,
			fmt.Sprintf("server returned %d", resp.StatusCode),
			nil,
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", services.Wrap(services.ErrUnavailable, "catalog", operation, "read response", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
