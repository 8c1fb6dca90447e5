package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glabrego/gallery-cli/internal/media"
)

// Visibility selects public or private bookmarks.
type Visibility string

const (
	Public  Visibility = "show"
	Private Visibility = "hide"
)

// infoJSON is the wire form of one item's metadata.
type infoJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	AuthorID  string   `json:"author_id"`
	Tags      []string `json:"tags"`
	PageCount int      `json:"page_count"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	URL       string   `json:"url"`
}

type idsJSON struct {
	IDs []string `json:"ids"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *Client) Authenticate(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/me.json")
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authenticate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return errors.New("authentication failed: invalid token")
	}
	return statusError("authenticate", resp)
}

// SearchPage returns the ids on one page of search results.
func (c *Client) SearchPage(ctx context.Context, query string, page int) ([]media.ID, error) {
	q := make(url.Values)
	q.Set("q", query)
	q.Set("page", strconv.Itoa(page))
	return c.listIDs(ctx, "/search.json?"+q.Encode(), "search results")
}

// BookmarksPage returns one page of a user's bookmarks.
func (c *Client) BookmarksPage(ctx context.Context, userID string, vis Visibility, page int) ([]media.ID, error) {
	q := make(url.Values)
	q.Set("rest", string(vis))
	q.Set("page", strconv.Itoa(page))
	path := "/users/" + url.PathEscape(userID) + "/bookmarks.json?" + q.Encode()
	return c.listIDs(ctx, path, "bookmarks")
}

// FetchInfo loads metadata for ids in one request.
func (c *Client) FetchInfo(ctx context.Context, ids []media.ID) ([]media.Info, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}
	q := make(url.Values)
	q.Set("ids", strings.Join(raw, ","))

	req, err := c.newRequest(ctx, http.MethodGet, "/illusts.json?"+q.Encode())
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("fetch info", resp)
	}

	var payload []infoJSON
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode info response: %w", err)
	}
	out := make([]media.Info, 0, len(payload))
	for _, p := range payload {
		id, err := media.ParseID(p.ID)
		if err != nil {
			return nil, fmt.Errorf("decode info response: %w", err)
		}
		out = append(out, media.Info{
			ID:        id,
			Title:     p.Title,
			Author:    p.Author,
			AuthorID:  p.AuthorID,
			Tags:      p.Tags,
			PageCount: p.PageCount,
			Width:     p.Width,
			Height:    p.Height,
			URL:       p.URL,
		})
	}
	return out, nil
}

// ItemURL is the web page for an item on the API host.
func (c *Client) ItemURL(id media.ID) string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	u.Path = "/" + string(id.Kind) + "s/" + id.Value
	u.RawQuery = ""
	return u.String()
}

func (c *Client) listIDs(ctx context.Context, path, resource string) ([]media.ID, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list "+resource, resp)
	}

	var payload idsJSON
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", resource, err)
	}
	ids, err := media.ParseIDs(payload.IDs)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", resource, err)
	}
	return ids, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}
