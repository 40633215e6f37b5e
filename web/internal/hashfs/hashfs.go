// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package hashfs serves static files with content-hash ETags, optionally
// minifying stylesheets, scripts and SVG images.
package hashfs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go4org/hashtriemap"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

// FS wraps a file system and caches processed files. Entries are keyed by
// name, modification time and size, so changed files are reprocessed.
type FS struct {
	fsys     fs.FS
	minifier *minify.M
	cache    hashtriemap.HashTrieMap[cacheKey, *File]
}

type cacheKey struct {
	name    string
	modTime int64
	size    int64
}

// File is a processed file.
type File struct {
	Name    string
	Content []byte
	ModTime time.Time
	// ETag is a quoted strong entity tag derived from Content.
	ETag string
}

var minifyTypes = map[string]string{
	".css": "text/css",
	".js":  "application/javascript",
	".mjs": "application/javascript",
	".svg": "image/svg+xml",
}

// NewFS returns a new FS serving files from fsys. If minifyAssets is true,
// files with known extensions are minified before serving.
func NewFS(fsys fs.FS, minifyAssets bool) *FS {
	h := &FS{fsys: fsys}
	if minifyAssets {
		m := minify.New()
		m.AddFunc("text/css", css.Minify)
		m.AddFunc("application/javascript", js.Minify)
		m.AddFunc("image/svg+xml", svg.Minify)
		h.minifier = m
	}
	return h
}

// Load returns the processed file with the given name.
// Directories are reported as not existing.
func (h *FS) Load(name string) (*File, error) {
	fi, err := fs.Stat(h.fsys, name)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	key := cacheKey{name: name, modTime: fi.ModTime().UnixNano(), size: fi.Size()}
	if f, ok := h.cache.Load(key); ok {
		return f, nil
	}

	content, err := fs.ReadFile(h.fsys, name)
	if err != nil {
		return nil, err
	}
	if mt, ok := minifyTypes[path.Ext(name)]; ok && h.minifier != nil {
		// Serve the original file if it can't be minified.
		if b, err := h.minifier.Bytes(mt, content); err == nil {
			content = b
		}
	}
	sum := sha256.Sum256(content)
	f := &File{
		Name:    name,
		Content: content,
		ModTime: fi.ModTime(),
		ETag:    `"` + hex.EncodeToString(sum[:8]) + `"`,
	}
	f, _ = h.cache.LoadOrStore(key, f)
	return f, nil
}

// FileServer returns a handler that serves files by request path. Errors,
// including missing files, are passed to onError.
func (h *FS) FileServer(onError func(http.ResponseWriter, *http.Request, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			onError(w, r, &fs.PathError{Op: "open", Path: "/", Err: fs.ErrNotExist})
			return
		}
		f, err := h.Load(name)
		if err != nil {
			onError(w, r, err)
			return
		}
		w.Header().Set("ETag", f.ETag)
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeContent(w, r, f.Name, f.ModTime, bytes.NewReader(f.Content))
	})
}

// IsNotExist reports whether err means that a file doesn't exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid)
}
