// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package encrypted encrypts short texts, such as API tokens, so they can be
// committed to source code and decrypted at runtime with a secret.
//
// A secret has the form
//
//	<key id>.<base64 key>
//
// and an encrypted code has the form
//
//	<key id>.<base64 nonce>.<base64 box>
//
// where box is sealed with NaCl secretbox. Codes can be written in source
// code as encrypted`<code>`.
package encrypted

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	keyIDSize = 4 // bytes, hex encoded
)

var (
	// ErrInvalidSecret is returned when a secret can't be parsed.
	ErrInvalidSecret = errors.New("encrypted: invalid secret")
	// ErrInvalidCode is returned when an encrypted code is malformed.
	ErrInvalidCode = errors.New("encrypted: invalid code")
	// ErrUnknownKey is returned when a code was encrypted with another key.
	ErrUnknownKey = errors.New("encrypted: code was encrypted with an unknown key")
	// ErrDecrypt is returned when a code fails authentication.
	ErrDecrypt = errors.New("encrypted: decryption failed")
)

// Secret is a key with its identifier.
type Secret struct {
	ID  string
	Key [keySize]byte
}

// GenerateSecret returns a new random secret.
func GenerateSecret() (Secret, error) {
	var s Secret
	id := make([]byte, keyIDSize)
	if _, err := rand.Read(id); err != nil {
		return s, err
	}
	if _, err := rand.Read(s.Key[:]); err != nil {
		return s, err
	}
	s.ID = hex.EncodeToString(id)
	return s, nil
}

// ParseSecret parses the textual form of a secret returned by [Secret.String].
func ParseSecret(str string) (Secret, error) {
	var s Secret
	id, key, ok := strings.Cut(strings.TrimSpace(str), ".")
	if !ok || id == "" || strings.Contains(key, ".") {
		return s, fmt.Errorf("%w: want <key id>.<key>", ErrInvalidSecret)
	}
	b, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	if len(b) != keySize {
		return s, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidSecret, keySize, len(b))
	}
	s.ID = id
	copy(s.Key[:], b)
	return s, nil
}

// String returns the textual form of s.
func (s Secret) String() string {
	return s.ID + "." + base64.StdEncoding.EncodeToString(s.Key[:])
}

// Box encrypts and decrypts codes with a secret.
type Box struct {
	secret Secret
}

// New returns a Box that uses secret.
func New(secret Secret) *Box { return &Box{secret: secret} }

// KeyID returns the identifier of the key used by b.
func (b *Box) KeyID() string { return b.secret.ID }

// Encrypt encrypts plaintext and returns the code.
func (b *Box) Encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nil, []byte(plaintext), &nonce, &b.secret.Key)
	return strings.Join([]string{
		b.secret.ID,
		base64.StdEncoding.EncodeToString(nonce[:]),
		base64.StdEncoding.EncodeToString(box),
	}, "."), nil
}

// Decrypt decrypts a code returned by [Box.Encrypt]. The code may be wrapped
// as encrypted`<code>`.
func (b *Box) Decrypt(code string) (string, error) {
	code = Unwrap(code)
	parts := strings.Split(code, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: want 3 dot-separated parts, got %d", ErrInvalidCode, len(parts))
	}
	if parts[0] != b.secret.ID {
		return "", fmt.Errorf("%w %q", ErrUnknownKey, parts[0])
	}
	nonceb, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(nonceb) != nonceSize {
		return "", fmt.Errorf("%w: bad nonce", ErrInvalidCode)
	}
	box, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(box) < secretbox.Overhead {
		return "", fmt.Errorf("%w: bad box", ErrInvalidCode)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], nonceb)
	plaintext, ok := secretbox.Open(nil, box, &nonce, &b.secret.Key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

// Wrap returns code as it would be written in source code.
func Wrap(code string) string { return "encrypted`" + code + "`" }

// Unwrap strips the wrapping added by [Wrap] and surrounding whitespace.
func Unwrap(code string) string {
	code = strings.TrimSpace(code)
	if s, ok := strings.CutPrefix(code, "encrypted`"); ok {
		if s, ok := strings.CutSuffix(s, "`"); ok {
			return s
		}
	}
	return code
}
