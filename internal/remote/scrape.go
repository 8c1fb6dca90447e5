package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	nethtml "golang.org/x/net/html"

	"github.com/glabrego/gallery-cli/internal/media"
)

const mediaIDAttr = "data-media-id"

// SearchPageHTML scrapes one page of the web search results instead of the
// JSON API. Some listings are only available this way.
func (c *Client) SearchPageHTML(ctx context.Context, query string, page int) ([]media.ID, error) {
	q := make(url.Values)
	q.Set("q", query)
	q.Set("p", strconv.Itoa(page))

	req, err := c.newRequest(ctx, http.MethodGet, "/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("scrape search", resp)
	}
	return ParseResultIDs(resp.Body)
}

// ParseResultIDs extracts ids from elements carrying data-media-id, in
// document order. Malformed ids are skipped.
func ParseResultIDs(r io.Reader) ([]media.ID, error) {
	doc, err := nethtml.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse results html: %w", err)
	}

	var out []media.ID
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key != mediaIDAttr {
					continue
				}
				if id, err := media.ParseID(attr.Val); err == nil {
					out = append(out, id)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return out, nil
}
