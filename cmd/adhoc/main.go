// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"go.astrophena.name/adhoc/cli"
	"go.astrophena.name/adhoc/config"
	"go.astrophena.name/adhoc/encrypted"
	"go.astrophena.name/adhoc/logger"
	"go.astrophena.name/adhoc/quote"
	"go.astrophena.name/adhoc/view"
	"go.astrophena.name/adhoc/web"
)

// realm is the HTTP basic authentication realm.
const realm = "adhoc"

func main() { cli.Main(new(app)) }

type app struct {
	// configured by flags
	addr     string
	envPath  string
	public   string
	quoteAPI string
	verbose  bool
	minify   bool

	// set in tests
	httpc *http.Client
	ready func()

	// initialized by init
	cfg    *config.Config
	box    *encrypted.Box
	quotes *quote.Client
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.addr, "addr", "localhost:18023", "Listen on `host:port` or sd-socket:name.")
	fs.StringVar(&a.envPath, "env", config.DefaultPath, "Read secrets from dotenv `file`, creating it if needed.")
	fs.StringVar(&a.public, "public", "public", "Serve static files from `dir` under /public/.")
	fs.StringVar(&a.quoteAPI, "quote-api", quote.DefaultBaseURL, "Base `URL` of the Quotable API.")
	fs.BoolVar(&a.verbose, "verbose", false, "Enable debug logging.")
	fs.BoolVar(&a.minify, "minify", false, "Minify static stylesheets, scripts and SVG images.")
}

func (a *app) Run(ctx context.Context) error {
	if len(cli.GetEnv(ctx).Args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrInvalidArgs, cli.GetEnv(ctx).Args)
	}
	if a.verbose {
		cli.SetLevel(ctx, slog.LevelDebug)
	}

	cfg, err := config.Load(ctx, a.envPath)
	if err != nil {
		return err
	}
	a.init(cfg)
	logger.Info(ctx, "loaded configuration",
		slog.String("path", cfg.Path),
		slog.String("key_id", a.box.KeyID()),
	)

	srv := &web.Server{
		Addr:         a.addr,
		Mux:          a.mux(),
		Middleware:   []web.Middleware{web.BasicAuth(realm, web.PasswordOnly(cfg.BasicAuthPassword))},
		StaticFS:     os.DirFS(a.public),
		MinifyStatic: a.minify,
		CSP:          csp(),
		Ready:        a.ready,
	}
	return srv.ListenAndServe(ctx)
}

func (a *app) init(cfg *config.Config) {
	a.cfg = cfg
	a.box = encrypted.New(cfg.EncryptionSecret)
	a.quotes = &quote.Client{BaseURL: a.quoteAPI, HTTPClient: a.httpc}
}

func (a *app) mux() *http.ServeMux {
	mux := http.NewServeMux()
	a.routes(mux)
	web.Health(mux).RegisterFunc("encryption", func() (string, bool) {
		return "using key " + a.box.KeyID(), true
	})
	return mux
}

func csp() *web.CSPMux {
	mux := web.NewCSPMux()
	mux.Handle("/", view.CSP)
	return mux
}
