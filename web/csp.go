// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"
)

// CSP source constants.
const (
	CSPSelf         = "'self'"
	CSPNone         = "'none'"
	CSPUnsafeInline = "'unsafe-inline'"
	CSPUnsafeEval   = "'unsafe-eval'"
	CSPData         = "data:"
)

// The default Content-Security-Policy.
// Based on https://github.com/tailscale/tailscale/blob/4ad3f01225745294474f1ae0de33e5a86824a744/safeweb/http.go.
var defaultCSP = CSP{
	DefaultSrc:           []string{CSPSelf},
	ScriptSrc:            []string{CSPSelf},
	ImgSrc:               []string{CSPSelf, CSPData},
	FrameAncestors:       []string{CSPNone},
	FormAction:           []string{CSPSelf},
	BaseURI:              []string{CSPSelf},
	ObjectSrc:            []string{CSPSelf},
	BlockAllMixedContent: true,
}.Finalize()

// DefaultCSP returns the policy sent with responses to requests that match
// no pattern of [Server.CSP]. Use [CSP.Extend] to build on it.
func DefaultCSP() CSP { return defaultCSP }

// CSP represents a Content Security Policy.
// The zero value is an empty policy.
//
// See https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/Content-Security-Policy.
type CSP struct {
	DefaultSrc              []string
	ScriptSrc               []string
	StyleSrc                []string
	ImgSrc                  []string
	ConnectSrc              []string
	FontSrc                 []string
	ObjectSrc               []string
	MediaSrc                []string
	FrameSrc                []string
	ChildSrc                []string
	FormAction              []string
	FrameAncestors          []string
	BaseURI                 []string
	Sandbox                 []string
	ReportURI               []string
	ReportTo                []string
	WorkerSrc               []string
	ManifestSrc             []string
	BlockAllMixedContent    bool
	UpgradeInsecureRequests bool

	str *string
}

// sources returns pointers to every source list of p keyed by directive name.
func (p *CSP) sources() map[string]*[]string {
	return map[string]*[]string{
		"default-src":     &p.DefaultSrc,
		"script-src":      &p.ScriptSrc,
		"style-src":       &p.StyleSrc,
		"img-src":         &p.ImgSrc,
		"connect-src":     &p.ConnectSrc,
		"font-src":        &p.FontSrc,
		"object-src":      &p.ObjectSrc,
		"media-src":       &p.MediaSrc,
		"frame-src":       &p.FrameSrc,
		"child-src":       &p.ChildSrc,
		"form-action":     &p.FormAction,
		"frame-ancestors": &p.FrameAncestors,
		"base-uri":        &p.BaseURI,
		"sandbox":         &p.Sandbox,
		"report-uri":      &p.ReportURI,
		"report-to":       &p.ReportTo,
		"worker-src":      &p.WorkerSrc,
		"manifest-src":    &p.ManifestSrc,
	}
}

// String returns the CSP header value.
func (p CSP) String() string {
	if p.str != nil {
		return *p.str
	}
	return p.compute()
}

func (p CSP) compute() string {
	var directives []string
	for name, src := range p.sources() {
		if len(*src) > 0 {
			directives = append(directives, name+" "+strings.Join(*src, " "))
		}
	}
	if p.BlockAllMixedContent {
		directives = append(directives, "block-all-mixed-content")
	}
	if p.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}
	sort.Strings(directives)
	return strings.Join(directives, "; ")
}

// Extend returns a copy of p with the sources of other appended to the
// matching directives. Boolean directives are enabled if either policy
// enables them. Duplicate sources are dropped.
func (p CSP) Extend(other CSP) CSP {
	var out CSP
	dst := out.sources()
	for name, src := range p.sources() {
		*dst[name] = slices.Clone(*src)
	}
	for name, src := range other.sources() {
		for _, s := range *src {
			if !slices.Contains(*dst[name], s) {
				*dst[name] = append(*dst[name], s)
			}
		}
	}
	out.BlockAllMixedContent = p.BlockAllMixedContent || other.BlockAllMixedContent
	out.UpgradeInsecureRequests = p.UpgradeInsecureRequests || other.UpgradeInsecureRequests
	return out.Finalize()
}

// Finalize computes and caches the string representation of the policy.
// CSPs are intended to be immutable; Finalize should be called after a policy
// is fully constructed.
func (p CSP) Finalize() CSP {
	p.str = nil
	s := p.compute()
	p.str = &s
	return p
}

// CSPMux is a multiplexer for Content Security Policies.
// It matches the URL of each incoming request against a list of registered
// patterns and returns the policy for the pattern that most closely matches the URL.
type CSPMux struct {
	mu  sync.RWMutex
	mux *http.ServeMux
	m   map[string]CSP // map from pattern to CSP
}

// NewCSPMux creates a new [CSPMux].
func NewCSPMux() *CSPMux {
	return &CSPMux{
		mux: http.NewServeMux(),
		m:   make(map[string]CSP),
	}
}

// Handle registers the CSP for the given pattern.
// If a policy already exists for pattern, Handle panics.
func (mux *CSPMux) Handle(pattern string, policy CSP) {
	mux.mu.Lock()
	defer mux.mu.Unlock()

	if _, exist := mux.m[pattern]; exist {
		panic("web: multiple registrations for " + pattern)
	}

	// Only the pattern matching is used.
	mux.mux.Handle(pattern, http.NotFoundHandler())
	mux.m[pattern] = policy.Finalize()
}

// PolicyFor returns the CSP for the given request.
// If no pattern matches, it returns a zero CSP and false.
func (mux *CSPMux) PolicyFor(r *http.Request) (CSP, bool) {
	mux.mu.RLock()
	defer mux.mu.RUnlock()

	_, pattern := mux.mux.Handler(r)
	if policy, ok := mux.m[pattern]; ok {
		return policy, true
	}
	return CSP{}, false
}
