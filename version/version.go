// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package version provides build information about the running binary.
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"go.astrophena.name/adhoc/syncx"
)

// Info holds build information.
type Info struct {
	// Name is the binary name.
	Name string `json:"name"`
	// Commit is the VCS revision the binary was built from, if known.
	Commit string `json:"commit,omitempty"`
	// Dirty reports whether the working tree had local modifications.
	Dirty bool `json:"dirty,omitempty"`
	// Built is the commit time, if known.
	Built time.Time `json:"built,omitzero"`
	// Go is the Go version the binary was built with.
	Go string `json:"go"`
	// OS and Arch are the target platform.
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// String returns a human-readable representation of Info.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s", i.Name)
	if i.Commit != "" {
		fmt.Fprintf(&sb, " (%s", i.Commit)
		if i.Dirty {
			sb.WriteString(", dirty")
		}
		if !i.Built.IsZero() {
			fmt.Fprintf(&sb, ", built at %s", i.Built.Format(time.RFC1123))
		}
		sb.WriteString(")")
	}
	fmt.Fprintf(&sb, " with %s on %s/%s\n", i.Go, i.OS, i.Arch)
	return sb.String()
}

var info syncx.Lazy[Info]

// Version returns build information of the running binary.
func Version() Info { return info.Get(readInfo) }

// CmdName returns the base name of the running binary without extension.
func CmdName() string {
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// UserAgent returns a User-Agent header value identifying the binary.
func UserAgent() string {
	v := Version()
	ua := v.Name
	if v.Commit != "" {
		ua += "/" + v.Commit
	}
	return ua
}

func readInfo() Info {
	i := Info{
		Name: CmdName(),
		Go:   runtime.Version(),
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return i
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			i.Commit = s.Value
			if len(i.Commit) > 12 {
				i.Commit = i.Commit[:12]
			}
		case "vcs.modified":
			i.Dirty = s.Value == "true"
		case "vcs.time":
			i.Built, _ = time.Parse(time.RFC3339, s.Value)
		}
	}
	return i
}
