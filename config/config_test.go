// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.astrophena.name/adhoc/cli"
	"go.astrophena.name/adhoc/encrypted"
	"go.astrophena.name/adhoc/testutil"
)

func testContext(env map[string]string) context.Context {
	return cli.WithEnv(context.Background(), &cli.Env{
		Getenv: func(key string) string { return env[key] },
	})
}

func TestLoadGenerates(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".data", "env")
	ctx := testContext(nil)

	cfg, err := Load(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BasicAuthPassword == "" {
		t.Fatal("password was not generated")
	}
	if cfg.EncryptionSecret.ID == "" {
		t.Fatal("encryption secret was not generated")
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, fi.Mode().Perm(), os.FileMode(0o600))

	// A second load must read back the same values.
	cfg2, err := Load(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, cfg2, cfg)
}

func TestLoadExisting(t *testing.T) {
	secret, err := encrypted.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), ".env")
	content := "BASIC_AUTH_PASSWORD=hunter2\nENCRYPTION_SECRET=" + secret.String() + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(testContext(nil), path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, cfg.BasicAuthPassword, "hunter2")
	testutil.AssertEqual(t, cfg.EncryptionSecret, secret)

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(b), content)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	cases := map[string]struct {
		file     string // empty means no file
		wantFile []string
	}{
		"file with password": {
			file:     "BASIC_AUTH_PASSWORD=fromfile\n",
			wantFile: []string{"BASIC_AUTH_PASSWORD=\"fromfile\"", "ENCRYPTION_SECRET="},
		},
		"no file": {
			wantFile: []string{"ENCRYPTION_SECRET="},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			if tc.file != "" {
				if err := os.WriteFile(path, []byte(tc.file), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := Load(testContext(map[string]string{KeyBasicAuthPassword: "fromenv"}), path)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, cfg.BasicAuthPassword, "fromenv")

			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertContains(t, string(b), tc.wantFile...)
			testutil.AssertNotContains(t, string(b), "fromenv")

			// The generated secret is read back from the file.
			cfg2, err := Load(testContext(map[string]string{KeyBasicAuthPassword: "fromenv"}), path)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, cfg2.EncryptionSecret, cfg.EncryptionSecret)
		})
	}
}

func TestLoadInvalidSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ENCRYPTION_SECRET=nope\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(testContext(nil), path)
	if !errors.Is(err, encrypted.ErrInvalidSecret) {
		t.Fatalf("want ErrInvalidSecret, got %v", err)
	}
	// Nothing must be written when loading fails.
	b, _ := os.ReadFile(path)
	testutil.AssertEqual(t, string(b), "ENCRYPTION_SECRET=nope\n")
}
