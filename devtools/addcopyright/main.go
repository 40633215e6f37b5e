// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.astrophena.name/adhoc/cli"
)

const goTemplate = `// © %d Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

`

const blockTemplate = `/*
 * © %d Ilya Mateyko. All rights reserved.
 * Use of this source code is governed by the ISC
 * license that can be found in the LICENSE.md file.
 */

`

// header describes the license header of one kind of file.
type header struct {
	// template is formatted with the year.
	template string
	// marker identifies an existing header.
	marker string
}

var headers = map[string]header{
	".go":  {template: goTemplate, marker: "// © "},
	".css": {template: blockTemplate, marker: "/*\n * © "},
	".js":  {template: blockTemplate, marker: "/*\n * © "},
}

func skipDir(name string) bool {
	if name == "." {
		return false
	}
	return strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, "_") ||
		name == "testdata" ||
		name == "node_modules"
}

func main() { cli.Main(new(app)) }

type app struct {
	dry  bool
	root string
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.dry, "dry", false, "Print the files that would have a copyright header added, without making changes.")
	fs.StringVar(&a.root, "root", ".", "Directory to walk.")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	if a.root == "" {
		return fmt.Errorf("%w: -root is empty", cli.ErrInvalidArgs)
	}

	return filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		h, ok := headers[filepath.Ext(path)]
		if !ok {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if bytes.HasPrefix(content, []byte(h.marker)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr := fmt.Sprintf(h.template, info.ModTime().Year())

		if a.dry {
			env.Logf("Would add copyright header to file %s.", path)
			return nil
		}
		return os.WriteFile(path, append([]byte(hdr), content...), info.Mode().Perm())
	})
}
