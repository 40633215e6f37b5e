// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Adhoc is a scaffold for small server-rendered web applications.

It serves a few demo pages behind HTTP basic authentication: a home page
with a menu, a random quote fetched from the Quotable API, a page that
always fails, and forms that encrypt and decrypt short texts. Pages are
built with the view and ui packages; debug lines written by a page are
shown at its bottom, even when the page fails.

# Configuration

Secrets are kept in a dotenv file (.env by default, see -env):

	BASIC_AUTH_PASSWORD  password for HTTP basic authentication; any user name is accepted
	ENCRYPTION_SECRET    key used by the encryption forms

Missing secrets are generated on startup and written back to the file.
Values set in the environment take precedence over the file.

Files in the directory given by -public are served under /public/.

# Usage

	$ adhoc [flags]

To use systemd socket activation, pass -addr sd-socket:<name>, where name
is the FileDescriptorName= of the socket unit.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/adhoc/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
