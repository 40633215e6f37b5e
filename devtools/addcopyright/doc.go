// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Addcopyright adds a copyright header to source files of the adhoc
repository.

It walks the directory given by the -root flag (the current directory by
default) and prepends the license header to every Go, CSS and JavaScript
file that doesn't start with one already. The year in the header is the
year the file was last modified.

Hidden directories, directories with names starting with an underscore,
testdata and node_modules are skipped.

Usage:

	$ go tool addcopyright [-dry] [-root dir]

With -dry, the files that would be changed are printed and nothing is
written.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/adhoc/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
