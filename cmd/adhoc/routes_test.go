// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.astrophena.name/adhoc/config"
	"go.astrophena.name/adhoc/encrypted"
	"go.astrophena.name/adhoc/testutil"
	"go.astrophena.name/adhoc/unwrap"
	"go.astrophena.name/adhoc/view"
	"go.astrophena.name/adhoc/web"
)

const testPassword = "correct horse battery staple"

const testQuote = `{
  "_id": "abc123",
  "content": "Simplicity is prerequisite for reliability.",
  "author": "Edsger W. Dijkstra",
  "authorSlug": "edsger-w-dijkstra",
  "tags": ["Technology"],
  "length": 43
}`

func testServer(t *testing.T, quotes http.Handler) (*app, *web.Server) {
	t.Helper()
	if quotes == nil {
		quotes = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, testQuote)
		})
	}
	a := &app{
		quoteAPI: "https://quotes.example.com",
		httpc:    testutil.MockHTTPClient(quotes),
	}
	a.init(&config.Config{
		BasicAuthPassword: testPassword,
		EncryptionSecret:  unwrap.Value(encrypted.GenerateSecret()),
	})
	return a, &web.Server{
		Mux:        a.mux(),
		Middleware: []web.Middleware{web.BasicAuth(realm, web.PasswordOnly(testPassword))},
		CSP:        csp(),
	}
}

func do(t *testing.T, srv http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.SetBasicAuth("anyone", testPassword)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func TestAuthRequired(t *testing.T) {
	_, srv := testServer(t, nil)
	for _, target := range []string{"/", "/quote", "/crash", "/encrypt", "/form", "/decrypt", "/health", "/version", "/public/robots.txt"} {
		t.Run(target, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
			testutil.AssertEqual(t, w.Code, http.StatusUnauthorized)
			testutil.AssertEqual(t, w.Header().Get("WWW-Authenticate"), `Basic realm="adhoc"`)
		})
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.SetBasicAuth("admin", "wrong")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	testutil.AssertEqual(t, w.Code, http.StatusUnauthorized)
}

func TestHome(t *testing.T) {
	_, srv := testServer(t, nil)
	w := do(t, srv, http.MethodGet, "/", nil)

	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertEqual(t, w.Header().Get("Content-Security-Policy"), view.CSP.String())
	testutil.AssertContains(t, w.Body.String(),
		"<title>Home page</title>",
		"<h1>Home page</h1>",
		"<strong>Welcome. </strong>This is a demo.",
		`<a href="/quote" class="list-group-item list-group-item-action d-flex"><span style="flex: 1 0 0">Get a random quote</span>`,
		`<span style="flex: 1 0 0">Encrypt some text (form demo)</span>`,
		`<span style="flex: 1 0 0">Test a route that does not work</span>`,
		"<code>This is an example debug message. They are for diagnostic purposes. Debug messages are shown at the bottom of the rendered page.</code>",
	)
}

func TestNotFound(t *testing.T) {
	_, srv := testServer(t, nil)
	w := do(t, srv, http.MethodGet, "/nope", nil)
	testutil.AssertEqual(t, w.Code, http.StatusNotFound)
}

func TestQuote(t *testing.T) {
	cases := map[string]struct {
		handler    http.HandlerFunc
		wantStatus int
		wantInBody []string
	}{
		"success": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/random" {
					http.NotFound(w, r)
					return
				}
				fmt.Fprint(w, testQuote)
			},
			wantStatus: http.StatusOK,
			wantInBody: []string{
				"<title>GET /quote</title>",
				`<p class="fs-3">Simplicity is prerequisite for reliability.</p>`,
				"<cite>Edsger W. Dijkstra</cite>",
				"<code>GET https://quotes.example.com/random</code>",
				"AuthorSlug:edsger-w-dijkstra",
			},
		},
		"upstream failure": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			wantStatus: http.StatusBadGateway,
			wantInBody: []string{
				"fetching random quote",
				"<code>GET https://quotes.example.com/random</code>",
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, srv := testServer(t, tc.handler)
			w := do(t, srv, http.MethodGet, "/quote", nil)
			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			testutil.AssertContains(t, w.Body.String(), tc.wantInBody...)
		})
	}
}

func TestCrash(t *testing.T) {
	_, srv := testServer(t, nil)
	w := do(t, srv, http.MethodGet, "/crash", nil)
	testutil.AssertEqual(t, w.Code, http.StatusInternalServerError)
	testutil.AssertContains(t, w.Body.String(),
		"<h1>GET /crash</h1>",
		"<code>panic: This is an example error.",
		"goroutine ",
		"cmd/adhoc/routes.go:",
		"<code>Debug messages are still shown even if the route crashes. This can be useful when debugging a crashed route!</code>",
	)
}

func TestEncryptForm(t *testing.T) {
	_, srv := testServer(t, nil)
	for _, path := range []string{"/encrypt", "/form"} {
		w := do(t, srv, http.MethodGet, path, nil)
		testutil.AssertEqual(t, w.Code, http.StatusOK)
		testutil.AssertContains(t, w.Body.String(),
			`<form action="/encrypt" method="post">`,
			"<p>Enter the text that you want to encrypt</p>",
			`<input type="text" class="form-control" id="text" name="text">`,
			`<button type="submit" class="btn btn-primary">Submit form</button>`,
		)
	}
}

// extractCode returns the code shown by the encrypt page.
func extractCode(t *testing.T, body string) string {
	t.Helper()
	_, rest, ok := strings.Cut(body, "encrypted`")
	if !ok {
		t.Fatalf("no code in page:\n%s", body)
	}
	code, _, ok := strings.Cut(rest, "`")
	if !ok {
		t.Fatalf("unterminated code in page:\n%s", body)
	}
	return code
}

func TestEncryptDecrypt(t *testing.T) {
	a, srv := testServer(t, nil)

	for _, path := range []string{"/encrypt", "/form"} {
		t.Run(path, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, path, url.Values{"text": {"hello, world"}})
			testutil.AssertEqual(t, w.Code, http.StatusOK)
			testutil.AssertContains(t, w.Body.String(), "<p>You can use the following code in your app to access the text:</p>")

			code := extractCode(t, w.Body.String())
			got, err := a.box.Decrypt(code)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, got, "hello, world")

			w = do(t, srv, http.MethodPost, "/decrypt", url.Values{"code": {encrypted.Wrap(code)}})
			testutil.AssertEqual(t, w.Code, http.StatusOK)
			testutil.AssertContains(t, w.Body.String(), "<code>hello, world</code>")
		})
	}
}

func TestEncryptMissingText(t *testing.T) {
	_, srv := testServer(t, nil)
	w := do(t, srv, http.MethodPost, "/encrypt", url.Values{"text": {""}})
	testutil.AssertEqual(t, w.Code, http.StatusBadRequest)
	testutil.AssertContains(t, w.Body.String(), "missing parameter: text")
}

func TestDecrypt(t *testing.T) {
	_, srv := testServer(t, nil)
	other, _ := testServer(t, nil)
	foreign := unwrap.Value(other.box.Encrypt("secret"))

	cases := map[string]struct {
		code       string
		wantStatus int
		wantInBody string
	}{
		"garbage": {
			code:       "not a code",
			wantStatus: http.StatusBadRequest,
			wantInBody: "invalid code",
		},
		"foreign key": {
			code:       foreign,
			wantStatus: http.StatusBadRequest,
			wantInBody: "unknown key",
		},
		"missing": {
			wantStatus: http.StatusBadRequest,
			wantInBody: "missing parameter: code",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/decrypt", url.Values{"code": {tc.code}})
			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			testutil.AssertContains(t, w.Body.String(), tc.wantInBody)
		})
	}

	w := do(t, srv, http.MethodGet, "/decrypt", nil)
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertContains(t, w.Body.String(), `<form action="/decrypt" method="post">`, `id="code"`)
}

func TestHealth(t *testing.T) {
	a, srv := testServer(t, nil)
	w := do(t, srv, http.MethodGet, "/health", nil)
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	resp := testutil.UnmarshalJSON[web.HealthResponse](t, w.Body.Bytes())
	testutil.AssertEqual(t, resp.OK, true)
	testutil.AssertEqual(t, resp.Checks["encryption"].Status, "using key "+a.box.KeyID())
}

func TestStatic(t *testing.T) {
	_, srv := testServer(t, nil)
	w := do(t, srv, http.MethodGet, "/public/robots.txt", nil)
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertContains(t, w.Body.String(), "Disallow: /")
}
