// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"maps"
	"net/http"
	"runtime"
	"slices"
	"sync"
	"weak"

	"github.com/go4org/hashtriemap"
)

// HealthHandler reports the status of registered health checks as JSON.
type HealthHandler struct {
	mu     sync.RWMutex
	checks map[string]HealthFunc
}

// HealthFunc is a health check. It returns a human-readable status and
// whether the check passed.
type HealthFunc func() (status string, ok bool)

// HealthResponse is the JSON response of [HealthHandler].
type HealthResponse struct {
	OK     bool                   `json:"ok"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of a single health check.
type CheckResult struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

// healthHandlers doesn't keep muxes alive: entries are removed once their
// mux is garbage collected.
var healthHandlers hashtriemap.HashTrieMap[weak.Pointer[http.ServeMux], *HealthHandler]

// Health returns the [HealthHandler] registered at /health on mux,
// registering a new one on the first call for that mux.
func Health(mux *http.ServeMux) *HealthHandler {
	key := weak.Make(mux)
	h, loaded := healthHandlers.LoadOrStore(key, &HealthHandler{checks: make(map[string]HealthFunc)})
	if !loaded {
		mux.Handle("GET /health", h)
		runtime.AddCleanup(mux, func(key weak.Pointer[http.ServeMux]) { healthHandlers.Delete(key) }, key)
	}
	return h
}

// RegisterFunc registers a health check under name.
// It panics if a check with the same name is already registered.
func (h *HealthHandler) RegisterFunc(name string, f HealthFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.checks[name]; dup {
		panic("web: duplicate health check " + name)
	}
	h.checks[name] = f
}

// ServeHTTP implements the [http.Handler] interface.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := maps.Clone(h.checks)
	h.mu.RUnlock()

	resp := HealthResponse{OK: true}
	for _, name := range slices.Sorted(maps.Keys(checks)) {
		status, ok := checks[name]()
		if resp.Checks == nil {
			resp.Checks = make(map[string]CheckResult)
		}
		resp.Checks[name] = CheckResult{Status: status, OK: ok}
		resp.OK = resp.OK && ok
	}
	if !resp.OK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		respondJSON(w, resp, true)
		return
	}
	RespondJSON(w, resp)
}
