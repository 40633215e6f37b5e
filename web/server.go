// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.astrophena.name/adhoc/logger"
	"go.astrophena.name/adhoc/syncx"
	"go.astrophena.name/adhoc/systemd"
	"go.astrophena.name/adhoc/unwrap"
	"go.astrophena.name/adhoc/version"
	"go.astrophena.name/adhoc/web/internal/hashfs"
	"go.astrophena.name/adhoc/web/internal/unionfs"
)

// StaticPrefix is the URL path prefix static files are served under.
const StaticPrefix = "/public/"

// Server is used to configure the HTTP server started by
// [Server.ListenAndServe].
//
// All fields of Server can't be modified after [Server.ListenAndServe] or
// [Server.ServeHTTP] is called for a first time.
type Server struct {
	// Mux is a http.ServeMux to serve.
	Mux *http.ServeMux
	// Middleware specifies an optional slice of HTTP middleware that's applied to
	// each request, after the built-in logging and recovery middleware.
	Middleware []Middleware
	// Addr is a network address to listen on (in the form of "host:port").
	// If it has the "sd-socket:" prefix, the rest is a name of the listener
	// passed by systemd socket activation.
	Addr string
	// Ready specifies an optional function to be called when the server is ready
	// to serve requests.
	Ready func()
	// StaticFS specifies an optional filesystem containing static assets to be
	// served under StaticPrefix. It's combined with the embedded defaults;
	// files in StaticFS take precedence.
	StaticFS fs.FS
	// MinifyStatic enables minification of static stylesheets, scripts and
	// SVG images.
	MinifyStatic bool
	// CSP optionally maps URL patterns to Content Security Policies.
	// Requests that match no pattern get a restrictive default policy.
	CSP *CSPMux
	// CrossOriginProtection configures CSRF protection. Defaults are used if nil.
	CrossOriginProtection *http.CrossOriginProtection

	handler syncx.Lazy[*handler]
}

type handler struct {
	handler http.Handler
	static  *hashfs.FS
}

// ServeHTTP implements the [http.Handler] interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.Get(s.initHandler).handler.ServeHTTP(w, r)
}

var (
	errNoAddr = errors.New("server.Addr is empty")
	errListen = errors.New("failed to listen")
)

// Middleware wraps an [http.Handler].
type Middleware func(http.Handler) http.Handler

//go:embed static
var embeddedStatic embed.FS

var defaultStatic = unwrap.Value(fs.Sub(embeddedStatic, "static"))

func (s *Server) initHandler() *handler {
	if s.Mux == nil {
		panic("Server.Mux is nil")
	}

	h := new(handler)

	var static unionfs.FS
	if s.StaticFS != nil {
		static = append(static, s.StaticFS)
	}
	static = append(static, defaultStatic)
	h.static = hashfs.NewFS(static, s.MinifyStatic)

	// Initialize internal routes.
	files := h.static.FileServer(func(w http.ResponseWriter, r *http.Request, err error) {
		if hashfs.IsNotExist(err) {
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		RespondError(w, r, err)
	})
	s.Mux.Handle("GET "+StaticPrefix, http.StripPrefix(strings.TrimSuffix(StaticPrefix, "/"), files))
	s.Mux.Handle("GET /robots.txt", files)
	s.Mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) { RespondJSON(w, version.Version()) })
	Health(s.Mux)

	csrf := s.CrossOriginProtection
	if csrf == nil {
		csrf = http.NewCrossOriginProtection()
	}
	csrf.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondError(w, r, fmt.Errorf("%w: CSRF protection failed", ErrForbidden))
	}))

	// Apply middleware. The first one is the outermost.
	h.handler = csrf.Handler(s.Mux)
	mws := append([]Middleware{s.setHeaders, logRequests, recoverPanics}, s.Middleware...)
	for _, middleware := range slices.Backward(mws) {
		h.handler = middleware(h.handler)
	}

	return h
}

func (s *Server) setHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		policy := defaultCSP
		if s.CSP != nil {
			if p, ok := s.CSP.PolicyFor(r); ok {
				policy = p
			}
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")
		w.Header().Set("Content-Security-Policy", policy.String())
		next.ServeHTTP(w, r)
	})
}

var requestIDKey = contextKey("request-id")

// RequestID returns the ID of the request handled with ctx, or an empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the status code and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		r = r.WithContext(logger.With(ctx, slog.String("request_id", id)))

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		logger.Info(r.Context(), "handled request",
			slog.String("method", r.Method),
			slog.String("url", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", rec.size),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.Error(r.Context(), "panic while handling request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.Path),
				slog.Any("panic", v),
				slog.String("stack", string(debug.Stack())),
			)
			if rec, ok := w.(*statusRecorder); ok && rec.status != 0 {
				// Too late to send an error page.
				return
			}
			RespondError(w, r, fmt.Errorf("%w: panic: %v", ErrInternalServerError, v))
		}()
		next.ServeHTTP(w, r)
	})
}

func listen(ctx context.Context, addr string) (net.Listener, error) {
	if name, ok := strings.CutPrefix(addr, "sd-socket:"); ok {
		return systemd.Socket(ctx, name)
	}
	return net.Listen("tcp", addr)
}

// ListenAndServe starts the HTTP server that can be stopped by canceling ctx.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.Addr == "" {
		return errNoAddr
	}

	l, err := listen(ctx, s.Addr)
	if err != nil {
		return fmt.Errorf("%w: %v", errListen, err)
	}

	logger.Info(ctx, "listening for HTTP requests", slog.String("addr", "http://"+l.Addr().String()))

	httpSrv := &http.Server{
		ErrorLog:          log.New(logger.LogfAt(ctx, slog.LevelError), "", 0),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)

	go func() {
		if err := httpSrv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				errCh <- err
			}
		}
	}()

	systemd.Notify(ctx, systemd.Ready)
	systemd.Notify(ctx, systemd.Status("serving on "+l.Addr().String()))
	systemd.Watchdog(ctx)
	if s.Ready != nil {
		s.Ready()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info(ctx, "HTTP server gracefully shutting down")
		systemd.Notify(ctx, systemd.Stopping)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
