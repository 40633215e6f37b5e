// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"testing"

	"go.astrophena.name/adhoc/testutil"
)

func TestExitCode(t *testing.T) {
	cases := map[string]struct {
		err        error
		wantCode   int
		wantStderr string
	}{
		"success": {
			err:      nil,
			wantCode: 0,
		},
		"version": {
			err:      ErrExitVersion,
			wantCode: 0,
		},
		"failure": {
			err:        errors.New("boom"),
			wantCode:   1,
			wantStderr: "boom\n",
		},
		"invalid arguments": {
			err:        fmt.Errorf("%w: missing file", ErrInvalidArgs),
			wantCode:   2,
			wantStderr: "invalid arguments: missing file\n",
		},
		"help": {
			err:      &unprintableError{err: flag.ErrHelp, usage: true},
			wantCode: 2,
		},
		"bad flag": {
			err:      &unprintableError{err: errors.New("flag provided but not defined: -x"), usage: true},
			wantCode: 2,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var stderr bytes.Buffer
			testutil.AssertEqual(t, exitCode(tc.err, &stderr), tc.wantCode)
			testutil.AssertEqual(t, stderr.String(), tc.wantStderr)
		})
	}
}

func TestParseDocComment(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"at start": {
			src:  "/*\nHello.\n*/\npackage main\n",
			want: "Hello.\n",
		},
		"after header": {
			src:  "// © 2025 Someone.\n\n/*\nHello,\nworld.\n*/\npackage main\n",
			want: "Hello,\nworld.\n",
		},
		"no comment": {
			src:  "// Package main does things.\npackage main\n",
			want: "",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, parseDocComment([]byte(tc.src)), tc.want)
		})
	}
}
