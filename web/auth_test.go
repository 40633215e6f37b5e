// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.astrophena.name/adhoc/testutil"
)

func TestBasicAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsTrustedRequest(r) {
			io.WriteString(w, "trusted")
			return
		}
		io.WriteString(w, "untrusted")
	})
	h := BasicAuth("adhoc", PasswordOnly("hunter2"))(next)

	cases := map[string]struct {
		user, pass string
		noAuth     bool
		wantStatus int
		wantBody   string
	}{
		"no credentials": {
			noAuth:     true,
			wantStatus: http.StatusUnauthorized,
		},
		"wrong password": {
			user:       "admin",
			pass:       "hunter3",
			wantStatus: http.StatusUnauthorized,
		},
		"empty password": {
			user:       "admin",
			wantStatus: http.StatusUnauthorized,
		},
		"any user": {
			user:       "whoever",
			pass:       "hunter2",
			wantStatus: http.StatusOK,
			wantBody:   "trusted",
		},
		"empty user": {
			pass:       "hunter2",
			wantStatus: http.StatusOK,
			wantBody:   "trusted",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if !tc.noAuth {
				r.SetBasicAuth(tc.user, tc.pass)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			if tc.wantStatus == http.StatusUnauthorized {
				testutil.AssertEqual(t, w.Header().Get("WWW-Authenticate"), `Basic realm="adhoc"`)
				testutil.AssertContains(t, w.Body.String(), "401 Unauthorized")
				return
			}
			testutil.AssertEqual(t, w.Header().Get("WWW-Authenticate"), "")
			testutil.AssertEqual(t, w.Body.String(), tc.wantBody)
		})
	}
}

func TestPasswordOnlyEmpty(t *testing.T) {
	validate := PasswordOnly("")
	testutil.AssertEqual(t, validate("", ""), false)
	testutil.AssertEqual(t, validate("user", ""), false)
}
