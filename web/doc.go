// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package web implements the HTTP plumbing of the adhoc server.

[Server] wraps a [http.ServeMux] with the middleware every page needs:
security headers including a per-route Content Security Policy, request IDs
and request logging, panic recovery and CSRF protection. It serves static
files from a directory under [StaticPrefix], falling back to embedded
defaults such as robots.txt, and exposes /health and /version.

Routes are protected with [BasicAuth]. Requests that pass it are trusted:
error pages rendered by [RespondError] for them include the error message.

Handlers report failures by wrapping a [StatusErr] sentinel:

	web.RespondError(w, r, fmt.Errorf("%w: no such code", web.ErrNotFound))

A minimal server:

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Hello, world!")
	})

	s := &web.Server{
		Mux:  mux,
		Addr: "localhost:18023",
		Middleware: []web.Middleware{
			web.BasicAuth("adhoc", web.PasswordOnly(password)),
		},
	}
	if err := s.ListenAndServe(ctx); err != nil {
		return err
	}
*/
package web
