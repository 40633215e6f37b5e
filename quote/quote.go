// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package quote fetches random quotes from the Quotable API.
//
// See https://github.com/lukePeavey/quotable.
package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/adhoc/request"
)

// DefaultBaseURL is the base URL of the public Quotable API.
const DefaultBaseURL = "https://api.quotable.io"

// Quote is a quote returned by the API.
type Quote struct {
	ID         string   `json:"_id"`
	Content    string   `json:"content"`
	Author     string   `json:"author"`
	AuthorSlug string   `json:"authorSlug"`
	Tags       []string `json:"tags"`
	Length     int      `json:"length"`
}

// Client is a Quotable API client. The zero value is ready to use.
type Client struct {
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// HTTPClient overrides request.DefaultClient.
	HTTPClient *http.Client
}

var errEmptyQuote = errors.New("quote: API returned an empty quote")

// URL returns the URL of the random quote endpoint.
func (c *Client) URL() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/random"
}

// Random returns a random quote.
func (c *Client) Random(ctx context.Context) (Quote, error) {
	q, err := request.Make[Quote](ctx, request.Params{
		URL:        c.URL(),
		HTTPClient: c.HTTPClient,
	})
	if err != nil {
		return Quote{}, fmt.Errorf("fetching random quote: %w", err)
	}
	if q.Content == "" {
		return Quote{}, errEmptyQuote
	}
	return q, nil
}
