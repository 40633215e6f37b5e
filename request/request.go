// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package request makes requests to JSON HTTP APIs.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.astrophena.name/adhoc/version"
)

// MaxResponseSize is the maximum size of a response body [Make] reads.
const MaxResponseSize = 1 << 20

// DefaultClient is the default [http.Client] used by [Make].
//
// It has a timeout of 10 seconds to prevent requests from hanging indefinitely.
var DefaultClient = &http.Client{
	Timeout: 10 * time.Second,
}

// Params defines the parameters needed for making an HTTP request.
type Params struct {
	// URL is the target URL of the request.
	URL string
	// HTTPClient overrides DefaultClient.
	HTTPClient *http.Client
}

// StatusError is returned when the server responds with a status other
// than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
	// Body is the beginning of the response body.
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: want status 200, got %d: %s", e.URL, e.StatusCode, bytes.TrimSpace(e.Body))
}

// ErrTooLarge is returned when a response body exceeds MaxResponseSize.
var ErrTooLarge = errors.New("request: response body too large")

// statusErrorBodySize limits how much of a response body a StatusError keeps.
const statusErrorBodySize = 512

// Make sends a GET request and unmarshals the JSON response body into a
// value of type Response.
func Make[Response any](ctx context.Context, p Params) (Response, error) {
	var resp Response

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return resp, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	httpc := DefaultClient
	if p.HTTPClient != nil {
		httpc = p.HTTPClient
	}

	res, err := httpc.Do(req)
	if err != nil {
		return resp, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseSize+1))
	if err != nil {
		return resp, fmt.Errorf("GET %s: reading response: %w", p.URL, err)
	}
	if len(b) > MaxResponseSize {
		return resp, fmt.Errorf("GET %s: %w", p.URL, ErrTooLarge)
	}

	if res.StatusCode != http.StatusOK {
		return resp, &StatusError{
			URL:        p.URL,
			StatusCode: res.StatusCode,
			Body:       b[:min(len(b), statusErrorBodySize)],
		}
	}

	if err := json.Unmarshal(b, &resp); err != nil {
		return resp, fmt.Errorf("GET %s: decoding response: %w", p.URL, err)
	}
	return resp, nil
}
