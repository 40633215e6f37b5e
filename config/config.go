// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config loads the application's secrets from a dotenv file,
// generating the missing ones on first run.
package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"

	"go.astrophena.name/adhoc/cli"
	"go.astrophena.name/adhoc/encrypted"
	"go.astrophena.name/adhoc/logger"
)

// Keys of the dotenv file.
const (
	KeyBasicAuthPassword = "BASIC_AUTH_PASSWORD"
	KeyEncryptionSecret  = "ENCRYPTION_SECRET"
)

// DefaultPath is the default location of the secrets file.
const DefaultPath = ".env"

// Config is the process-wide configuration.
type Config struct {
	// Path is the file the configuration was loaded from.
	Path string
	// BasicAuthPassword is the password required by HTTP basic authentication.
	BasicAuthPassword string
	// EncryptionSecret is the secret used to encrypt texts.
	EncryptionSecret encrypted.Secret
}

// Load reads the dotenv file at path. Values set in the environment of ctx
// ([cli.Env]) take precedence over the file. Missing secrets are generated
// and written back to path.
func Load(ctx context.Context, path string) (*Config, error) {
	file, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		file = make(map[string]string)
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// vals holds the effective configuration. Only file is written back, so
	// values coming from the environment never end up on disk.
	vals := maps.Clone(file)
	getenv := cli.GetEnv(ctx).Getenv
	for _, key := range []string{KeyBasicAuthPassword, KeyEncryptionSecret} {
		if v := getenv(key); v != "" {
			vals[key] = v
		}
	}

	var generated []string
	if vals[KeyBasicAuthPassword] == "" {
		pw, err := generatePassword()
		if err != nil {
			return nil, err
		}
		vals[KeyBasicAuthPassword], file[KeyBasicAuthPassword] = pw, pw
		generated = append(generated, KeyBasicAuthPassword)
	}
	if vals[KeyEncryptionSecret] == "" {
		s, err := encrypted.GenerateSecret()
		if err != nil {
			return nil, err
		}
		vals[KeyEncryptionSecret], file[KeyEncryptionSecret] = s.String(), s.String()
		generated = append(generated, KeyEncryptionSecret)
	}

	secret, err := encrypted.ParseSecret(vals[KeyEncryptionSecret])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyEncryptionSecret, err)
	}

	if len(generated) > 0 {
		if err := write(path, file); err != nil {
			return nil, err
		}
		slices.Sort(generated)
		logger.Info(ctx, "generated missing secrets", slog.String("path", path), slog.Any("keys", generated))
	}

	return &Config{
		Path:              path,
		BasicAuthPassword: vals[KeyBasicAuthPassword],
		EncryptionSecret:  secret,
	}, nil
}

func write(path string, vals map[string]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	content, err := godotenv.Marshal(vals)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
