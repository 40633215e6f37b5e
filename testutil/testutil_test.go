// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package testutil

import (
	"io"
	"net/http"
	"testing"
)

func TestMockHTTPClient(t *testing.T) {
	c := MockHTTPClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
	}))

	resp, err := c.Get("https://example.com/random")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	got := UnmarshalJSON[map[string]string](t, b)
	AssertEqual(t, got["path"], "/random")
	AssertContains(t, string(b), "random")
	AssertNotContains(t, string(b), "quote")
}
