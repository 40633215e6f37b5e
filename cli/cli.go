// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package cli runs single-command programs such as the adhoc server.
//
// A program implements [App] (and optionally [HasFlags]) and calls [Main]
// from its main function. [Run] does the actual work and takes the program's
// environment from the context, which lets tests run programs in-process
// with fake arguments, environment variables and output streams.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"golang.org/x/term"

	"go.astrophena.name/adhoc/logger"
	"go.astrophena.name/adhoc/syncx"
	"go.astrophena.name/adhoc/version"
)

// Main runs app until it returns or the process receives SIGINT or SIGTERM,
// and exits with a non-zero status if it fails. Invalid arguments exit with
// status 2, like the flag package does.
func Main(app App) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(exitCode(Run(ctx, app), os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil || errors.Is(err, ErrExitVersion) {
		return 0
	}
	if isPrintableError(err) {
		fmt.Fprintln(stderr, err)
	}
	if errors.Is(err, ErrInvalidArgs) || errors.Is(err, flag.ErrHelp) {
		return 2
	}
	var ue *unprintableError
	if errors.As(err, &ue) && ue.usage {
		return 2
	}
	return 1
}

type unprintableError struct {
	err   error
	usage bool // error in command-line flags
}

func (e *unprintableError) Error() string { return e.err.Error() }
func (e *unprintableError) Unwrap() error { return e.err }

func isPrintableError(err error) bool {
	if errors.Is(err, flag.ErrHelp) {
		return false
	}
	var ue *unprintableError
	return !errors.As(err, &ue)
}

// ErrExitVersion signals that the application should exit successfully after
// printing the version information.
var ErrExitVersion = &unprintableError{err: errors.New("version flag exit")}

// ErrInvalidArgs indicates that the user provided invalid command-line
// arguments. It should be wrapped with more specific context about the error.
var ErrInvalidArgs = errors.New("invalid arguments")

// App represents a runnable command-line application.
type App interface {
	// Run executes the application's primary logic.
	Run(context.Context) error
}

// HasFlags is an App that can define its own command-line flags.
type HasFlags interface {
	App

	// Flags registers flags with the given FlagSet.
	Flags(*flag.FlagSet)
}

// AppFunc is an adapter to allow the use of ordinary functions as an App.
type AppFunc func(context.Context) error

// Run calls the underlying function.
func (f AppFunc) Run(ctx context.Context) error { return f(ctx) }

type ctxKey int

var envKey ctxKey

// GetEnv retrieves the application's environment from a context.
// If the context has no environment, it returns one based on the current OS.
func GetEnv(ctx context.Context) *Env {
	if e, ok := ctx.Value(envKey).(*Env); ok {
		return e
	}
	return OSEnv()
}

// WithEnv returns a new context that carries the provided application environment.
func WithEnv(ctx context.Context, e *Env) context.Context {
	return context.WithValue(ctx, envKey, e)
}

// Env represents the application's environment: its arguments, environment
// variables and standard streams.
type Env struct {
	Args   []string
	Getenv func(string) string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logf syncx.Lazy[logger.Logf]
}

// Logf prints a formatted message to the environment's standard error.
func (e *Env) Logf(format string, args ...any) {
	e.logf.Get(func() logger.Logf {
		return log.New(e.Stderr, "", 0).Printf
	})(format, args...)
}

// withArgs returns a copy of e with Args replaced.
func (e *Env) withArgs(args []string) *Env {
	return &Env{
		Args:   args,
		Getenv: e.Getenv,
		Stdin:  e.Stdin,
		Stdout: e.Stdout,
		Stderr: e.Stderr,
	}
}

// OSEnv creates an Env based on the current operating system environment.
func OSEnv() *Env {
	return &Env{
		Args:   os.Args[1:],
		Getenv: os.Getenv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// IsTerminal reports whether fd refers to a terminal. Tests can replace it.
var IsTerminal = term.IsTerminal

// profiles holds the values of the profiling flags.
type profiles struct {
	cpu, mem string
}

func (p *profiles) register(flags *flag.FlagSet) {
	flags.StringVar(&p.cpu, "cpuprofile", "", "Write CPU profile to `file`.")
	flags.StringVar(&p.mem, "memprofile", "", "Write memory profile to `file`.")
}

// startCPU starts CPU profiling if requested and returns a function that
// stops it.
func (p *profiles) startCPU() (stop func(), err error) {
	if p.cpu == "" {
		return func() {}, nil
	}
	f, err := os.Create(p.cpu)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

func (p *profiles) writeHeap() error {
	if p.mem == "" {
		return nil
	}
	f, err := os.Create(p.mem)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()
	runtime.GC() // get up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return nil
}

// Run executes an application. It parses flags, handles standard flags like
// -version and -cpuprofile, and then runs the app.
//
// If ctx carries no [logger.Logger], Run creates one that writes to the
// environment's standard error, colored when it is a terminal and the
// NO_COLOR environment variable is unset.
func Run(ctx context.Context, app App) error {
	env := GetEnv(ctx)

	flags := flag.NewFlagSet(version.CmdName(), flag.ContinueOnError)
	if fa, ok := app.(HasFlags); ok {
		fa.Flags(flags)
	}
	var prof profiles
	prof.register(flags)
	var showVersion bool
	if flags.Lookup("version") == nil {
		flags.BoolVar(&showVersion, "version", false, "Show version.")
	}

	flags.Usage = usage(flags, env.Stderr)
	flags.SetOutput(env.Stderr)
	if err := flags.Parse(env.Args); err != nil {
		// The flag package has already printed the error.
		return &unprintableError{err: err, usage: true}
	}

	if showVersion {
		fmt.Fprint(env.Stderr, version.Version())
		return ErrExitVersion
	}

	stopCPU, err := prof.startCPU()
	if err != nil {
		return err
	}
	defer stopCPU()

	ctx = WithEnv(ctx, env.withArgs(flags.Args()))
	if logger.IsDefault(logger.Get(ctx)) {
		ctx = logger.Put(ctx, newLogger(env))
	}

	if err := app.Run(ctx); err != nil {
		return err
	}
	return prof.writeHeap()
}

func newLogger(env *Env) *logger.Logger {
	l := logger.New(nil)
	color := env.Getenv("NO_COLOR") == ""
	if f, ok := env.Stderr.(*os.File); !ok || !IsTerminal(int(f.Fd())) {
		color = false
	}
	l.Attach(logger.NewConsoleHandler(env.Stderr, l.Level, color))
	return l
}

// SetLevel sets the level of the [logger.Logger] carried by ctx.
func SetLevel(ctx context.Context, level slog.Level) {
	logger.LevelVar(ctx).Set(level)
}

func usage(flags *flag.FlagSet, stderr io.Writer) func() {
	return func() {
		if docSrc != nil {
			fmt.Fprintf(stderr, "%s\n", parseDocComment(docSrc))
		}
		fmt.Fprint(stderr, "Available flags:\n\n")
		flags.PrintDefaults()
	}
}

var docSrc []byte

// SetDocComment sets the main documentation for the application, which is
// displayed when a user passes the -help flag. It is intended to be used with
// Go's //go:embed directive.
//
// Example:
//
//	//go:embed doc.go
//	var doc []byte
//
//	func init() { cli.SetDocComment(doc) }
func SetDocComment(src []byte) { docSrc = src }

// parseDocComment returns the contents of the first /* */ block of src,
// which must open and close on lines of their own.
func parseDocComment(src []byte) string {
	_, rest, ok := strings.Cut(string(src), "\n/*\n")
	if !ok {
		if rest, ok = strings.CutPrefix(string(src), "/*\n"); !ok {
			return ""
		}
	}
	comment, _, _ := strings.Cut(rest, "\n*/")
	return comment + "\n"
}
