// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package view turns functions that build a page into HTTP handlers.
//
// A handler wrapped with [Handle] receives a [View], adds components to it
// and optionally writes debug lines. The components are rendered inside the
// page shell, followed by the debug lines. Errors and panics in the handler
// don't replace the page: they are shown in it, so the debug lines written
// before the failure are still visible.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/a-h/templ"

	"go.astrophena.name/adhoc/logger"
	"go.astrophena.name/adhoc/syncx"
	"go.astrophena.name/adhoc/ui"
	"go.astrophena.name/adhoc/web"
)

// MaxFormSize is the maximum size of a request body parsed as a form.
const MaxFormSize = 1 << 20

// View accumulates the output of one request.
// Its methods are safe for concurrent use.
type View struct {
	r     *http.Request
	state *syncx.Protected[*state]
}

type state struct {
	title    string
	output   []templ.Component
	logs     []string
	redirect string
}

func newView(r *http.Request) *View {
	return &View{
		r:     r,
		state: syncx.Protect(&state{title: defaultTitle(r)}),
	}
}

// defaultTitle returns the method and path of the route that matched r.
func defaultTitle(r *http.Request) string {
	if r.Pattern == "" {
		return r.Method + " " + r.URL.Path
	}
	method, path, ok := strings.Cut(r.Pattern, " ")
	if !ok {
		return r.Method + " " + r.Pattern
	}
	return method + " " + path
}

// Request returns the request being handled.
func (v *View) Request() *http.Request { return v.r }

// Context returns the context of the request being handled.
func (v *View) Context() context.Context { return v.r.Context() }

// Title returns the page title. It defaults to the method and path pattern
// of the route, such as "GET /quote".
func (v *View) Title() string {
	return syncx.Read(v.state, func(s *state) string { return s.title })
}

// SetTitle changes the page title and heading.
func (v *View) SetTitle(title string) {
	v.state.WriteAccess(func(s *state) { s.title = title })
}

// Add appends components to the page.
func (v *View) Add(components ...templ.Component) {
	v.state.WriteAccess(func(s *state) { s.output = append(s.output, components...) })
}

// Debug adds a debug line made of args separated by spaces, like
// [fmt.Println] does. Debug lines are shown at the bottom of the page.
func (v *View) Debug(args ...any) {
	v.debug(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

// Debugf adds a debug line formatted like [fmt.Printf].
func (v *View) Debugf(format string, args ...any) {
	v.debug(fmt.Sprintf(format, args...))
}

func (v *View) debug(line string) {
	v.state.WriteAccess(func(s *state) { s.logs = append(s.logs, line) })
	logger.Debug(v.Context(), "view debug line", slog.String("line", line))
}

// Redirect makes the handler respond with a redirect to url instead of a
// page. It has no effect if the handler returns an error.
func (v *View) Redirect(url string) {
	v.state.WriteAccess(func(s *state) { s.redirect = url })
}

// Param returns the named parameter from the path, the form body or the
// query string, in that order. An empty value counts as absent.
func (v *View) Param(name string) string {
	if val := v.r.PathValue(name); val != "" {
		return val
	}
	if val := v.r.PostForm.Get(name); val != "" {
		return val
	}
	return v.r.URL.Query().Get(name)
}

// RequiredParam is like [View.Param], but returns an error that results in
// a 400 Bad Request response if the parameter is absent.
func (v *View) RequiredParam(name string) (string, error) {
	if val := v.Param(name); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("%w: missing parameter: %s", web.ErrBadRequest, name)
}

// panicError is a recovered panic.
type panicError struct {
	val   any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.val, e.stack)
}

func (e *panicError) Unwrap() error {
	err, _ := e.val.(error)
	return err
}

// call runs f with v, turning a panic into an error.
func (v *View) call(f func(*View) error) (err error) {
	defer func() {
		val := recover()
		if val == nil {
			return
		}
		if val == http.ErrAbortHandler {
			panic(val)
		}
		err = &panicError{val: val, stack: debug.Stack()}
	}()
	return f(v)
}

// Handle returns an HTTP handler that runs f and renders its output as a
// page.
//
// Form bodies of up to [MaxFormSize] bytes are parsed before f is called.
// If f returns an error or panics, the error is shown in the page and the
// status code is derived with [web.StatusCode].
func Handle(f func(*View) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := newView(r)

		r.Body = http.MaxBytesReader(w, r.Body, MaxFormSize)
		err := r.ParseForm()
		if err != nil {
			err = parseError(err)
		} else {
			err = v.call(f)
		}

		var s state
		v.state.ReadAccess(func(st *state) {
			s = *st
			s.output = append([]templ.Component(nil), st.output...)
			s.logs = append([]string(nil), st.logs...)
		})

		if err == nil && s.redirect != "" {
			http.Redirect(w, r, s.redirect, http.StatusFound)
			return
		}

		status := http.StatusOK
		if err != nil {
			status = web.StatusCode(err)
			if status == http.StatusInternalServerError {
				logger.Error(r.Context(), "view failed",
					slog.String("method", r.Method),
					slog.String("url", r.URL.Path),
					slog.Any("err", err),
				)
			}
			s.output = append(s.output, ui.Pre(ui.Text(err.Error())))
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := page(s.title, s.output, s.logs).Render(r.Context(), w); err != nil {
			logger.Error(r.Context(), "rendering page failed", slog.Any("err", err))
		}
	}
}

func parseError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: form body exceeds %d bytes", web.ErrRequestEntityTooLarge, mbe.Limit)
	}
	return fmt.Errorf("%w: parsing form: %v", web.ErrBadRequest, err)
}
