// extractview serves a web UI for an entity and event extraction service,
// and renders saved extraction responses to HTML.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"braces.dev/errtrace"
	"go.abhg.dev/extractview/internal/annotate"
	"go.abhg.dev/extractview/internal/highlight"
	"go.abhg.dev/extractview/internal/logging"
	"go.abhg.dev/extractview/internal/server"
	"go.abhg.dev/extractview/internal/service"
	"go.abhg.dev/extractview/internal/ui"
)

const (
	_shutdownTimeout = 10 * time.Second
	_sweepInterval   = time.Minute
)

func main() {
	cmd := mainCmd{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		DotEnv: ".env",
	}
	os.Exit(cmd.Run(os.Args[1:]))
}

// mainCmd is the actual entry point to the program.
type mainCmd struct {
	Stdout io.Writer // == os.Stdout
	Stderr io.Writer // == os.Stderr

	// DotEnv is loaded into the environment before flags are parsed.
	DotEnv string

	// ctx is the parent context of the server.
	// Defaults to context.Background.
	ctx context.Context

	// ready is called with the listener's address
	// once the server is accepting connections.
	ready func(net.Addr)
}

func (cmd *mainCmd) Run(args []string) (exitCode int) {
	opts, err := (&cliParser{
		Stdout: cmd.Stdout,
		Stderr: cmd.Stderr,
		DotEnv: cmd.DotEnv,
	}).Parse(args)
	if err != nil {
		// '$cmd -h' should exit with zero.
		if errors.Is(err, errHelp) {
			return 0
		}
		// No need to print anything.
		// Parse prints messages.
		return 1
	}

	logW, closeLog, err := cmd.logOutput(opts)
	if err != nil {
		logging.New(cmd.Stderr, slog.LevelError, opts.LogFormat).
			Error("open debug log", "error", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	level := opts.LogLevel
	if opts.Debug.Bool() {
		level = slog.LevelDebug
	}
	log := logging.New(logW, level, opts.LogFormat)

	if err := cmd.run(opts, log); err != nil {
		log.Error("extractview failed", "error", err)
		return 1
	}
	return 0
}

// logOutput picks where logs go: stderr,
// or the destination of -debug if it was passed.
func (cmd *mainCmd) logOutput(opts *params) (io.Writer, func() error, error) {
	if !opts.Debug.Bool() {
		return cmd.Stderr, func() error { return nil }, nil
	}
	w, closeW, err := opts.Debug.Open(cmd.Stderr)
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	return w, closeW, nil
}

func (cmd *mainCmd) run(opts *params, log *slog.Logger) error {
	annotator := &annotate.Renderer{
		Overlap: annotate.OverlapPolicy(opts.Overlap),
	}

	if len(opts.Files) > 0 {
		return (&Generator{
			Log:       log,
			Renderer:  newRenderer(opts.Embed, annotator),
			Annotator: annotator,
			OutDir:    opts.OutputDir,
			Check:     opts.Check,
			Export:    opts.Export,
		}).Generate(opts.Files)
	}

	// The server always renders full pages.
	return cmd.serve(opts, log, newRenderer(false, annotator))
}

// newRenderer builds a page renderer.
// Embedded pages have no stylesheet, so they highlight with inline styles.
func newRenderer(embed bool, annotator *annotate.Renderer) *ui.Renderer {
	return &ui.Renderer{
		Embedded: embed,
		Highlighter: &highlight.Highlighter{
			Style:      highlight.PlainStyle,
			UseClasses: !embed,
		},
		Annotator: annotator,
	}
}

func (cmd *mainCmd) serve(opts *params, log *slog.Logger, renderer *ui.Renderer) error {
	samples, err := readSamples(opts.Samples)
	if err != nil {
		return err
	}

	client := service.New(opts.Service,
		service.WithTimeout(opts.Timeout),
		service.WithMaxRetries(opts.Retries),
		service.WithLogger(log.With("component", "service")),
	)

	handler := server.New(server.Config{
		Service:     client,
		Renderer:    renderer,
		Logger:      log,
		LocalExport: opts.LocalExport,
		Samples:     samples,
	})

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{
		Handler:           server.WithRequestID(server.AccessLog(log, mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		// Extraction waits on the service.
		WriteTimeout: opts.Timeout + time.Minute,
		IdleTimeout:  2 * time.Minute,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return errtrace.Wrap(err)
	}

	parent := cmd.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go handler.SweepSessions(ctx, _sweepInterval)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	log.Info("serving extraction UI",
		"addr", ln.Addr().String(),
		"service", opts.Service,
		"local_export", opts.LocalExport,
		"samples", len(samples),
	)
	if cmd.ready != nil {
		cmd.ready(ln.Addr())
	}

	select {
	case err := <-serveErr:
		return errtrace.Wrap(err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), _shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return errtrace.Wrap(err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errtrace.Wrap(err)
	}
	return nil
}

// readSamples reads each file as one sample text.
func readSamples(paths []samplePath) ([]string, error) {
	samples := make([]string, 0, len(paths))
	for _, path := range paths {
		bs, err := os.ReadFile(string(path))
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		samples = append(samples, string(bs))
	}
	return samples, nil
}
