// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package encrypted

import (
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/adhoc/testutil"
)

func newBox(t *testing.T) *Box {
	t.Helper()
	s, err := GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	return New(s)
}

func TestSecretRoundTrip(t *testing.T) {
	s, err := GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(s.ID), 8)

	parsed, err := ParseSecret(s.String())
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, parsed, s)
}

func TestParseSecretErrors(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"no key":      "abcd",
		"bad base64":  "abcd.!!!",
		"short key":   "abcd.c2hvcnQ=",
		"extra parts": "abcd.AAAA.BBBB",
		"no id":       ".AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSecret(in); !errors.Is(err, ErrInvalidSecret) {
				t.Fatalf("want ErrInvalidSecret, got %v", err)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	b := newBox(t)

	for _, text := range []string{"hello", "", "ünïcödé and spaces", strings.Repeat("x", 4096)} {
		code, err := b.Encrypt(text)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(code, b.KeyID()+".") {
			t.Fatalf("code %q doesn't start with key id %q", code, b.KeyID())
		}
		testutil.AssertEqual(t, strings.Count(code, "."), 2)

		got, err := b.Decrypt(code)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, got, text)

		got, err = b.Decrypt("  " + Wrap(code) + "\n")
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, got, text)
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	b := newBox(t)
	c1, _ := b.Encrypt("same")
	c2, _ := b.Encrypt("same")
	if c1 == c2 {
		t.Fatal("encrypting the same text twice produced identical codes")
	}
}

func TestDecryptErrors(t *testing.T) {
	b := newBox(t)
	other := newBox(t)

	code, err := b.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(code, ".")
	tampered := parts[0] + "." + parts[1] + "." + "A" + parts[2][1:]
	if tampered == code {
		tampered = parts[0] + "." + parts[1] + "." + "B" + parts[2][1:]
	}
	foreign, err := other.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]struct {
		code    string
		wantErr error
	}{
		"garbage":   {code: "nope", wantErr: ErrInvalidCode},
		"bad nonce": {code: parts[0] + ".AAAA." + parts[2], wantErr: ErrInvalidCode},
		"bad box":   {code: parts[0] + "." + parts[1] + ".AAAA", wantErr: ErrInvalidCode},
		"foreign":   {code: foreign, wantErr: ErrUnknownKey},
		"tampered":  {code: tampered, wantErr: ErrDecrypt},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := b.Decrypt(tc.code); !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestWrapUnwrap(t *testing.T) {
	testutil.AssertEqual(t, Wrap("a.b.c"), "encrypted`a.b.c`")
	testutil.AssertEqual(t, Unwrap("encrypted`a.b.c`"), "a.b.c")
	testutil.AssertEqual(t, Unwrap("a.b.c"), "a.b.c")
	testutil.AssertEqual(t, Unwrap("encrypted`a.b.c"), "encrypted`a.b.c")
}
