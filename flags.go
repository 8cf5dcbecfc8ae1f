package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"go.abhg.dev/extractview/internal/annotate"
	"go.abhg.dev/extractview/internal/export"
	"go.abhg.dev/extractview/internal/flagvalue"
	"go.abhg.dev/extractview/internal/logging"
)

var (
	errHelp             = flag.ErrHelp
	errInvalidArguments = errors.New("invalid arguments")
)

// _envPrefix prefixes environment variables that set options.
const _envPrefix = "EXTRACTVIEW"

// params holds all arguments for extractview.
type params struct {
	version bool
	help    Help

	// Service:
	Addr        string
	Service     string
	Timeout     time.Duration
	Retries     int
	LocalExport bool
	Samples     []samplePath

	// Rendering:
	Overlap   overlapPolicy
	OutputDir string
	Embed     bool
	Check     bool
	Export    string

	// Logging:
	LogLevel  slog.Level
	LogFormat logging.Format
	Debug     flagvalue.FileSwitch

	// Files are saved responses to render.
	// If empty, extractview serves the UI.
	Files []string
}

// cliParser parses the command line arguments for extractview.
type cliParser struct {
	Stdout io.Writer
	Stderr io.Writer

	// DotEnv is a .env file loaded into the environment before parsing.
	// It's fine for it to not exist.
	DotEnv string
}

func (cmd *cliParser) newFlagSet() (*params, *flag.FlagSet) {
	flag := flag.NewFlagSet("extractview", flag.ContinueOnError)
	flag.SetOutput(cmd.Stderr)
	flag.Usage = func() {
		_ = DefaultHelp.Write(cmd.Stderr)
	}

	p := params{
		LogLevel:  slog.LevelInfo,
		LogFormat: logging.FormatText,
	}

	// Service:
	flag.StringVar(&p.Addr, "addr", ":8080", "")
	flag.StringVar(&p.Service, "service", "http://localhost:8000", "")
	flag.DurationVar(&p.Timeout, "timeout", 30*time.Second, "")
	flag.IntVar(&p.Retries, "retries", 3, "")
	flag.BoolVar(&p.LocalExport, "local-export", false, "")
	flag.Var(flagvalue.ListOf(&p.Samples), "sample", "")

	// Rendering:
	flag.Var(&p.Overlap, "overlap", "")
	flag.StringVar(&p.OutputDir, "out", "_site", "")
	flag.BoolVar(&p.Embed, "embed", false, "")
	flag.BoolVar(&p.Check, "check", false, "")
	flag.Func("export", "", func(s string) error {
		if _, err := export.ContentType(s); err != nil {
			return err
		}
		p.Export = s
		return nil
	})

	// Logging:
	flag.Func("log-level", "", func(s string) error {
		p.LogLevel = logging.ParseLevel(s)
		return nil
	})
	flag.Func("log-format", "", func(s string) (err error) {
		p.LogFormat, err = logging.ParseFormat(s)
		return err
	})
	flag.Var(&p.Debug, "debug", "")

	// Program-level:
	flag.String("config", "", "")
	flag.BoolVar(&p.version, "version", false, "")
	flag.Var(&p.help, "help", "")
	flag.Var(&p.help, "h", "")

	return &p, flag
}

func (cmd *cliParser) Parse(args []string) (*params, error) {
	if cmd.DotEnv != "" {
		// Variables already in the environment win.
		if err := godotenv.Load(cmd.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(cmd.Stderr, "load %v: %v\n", cmd.DotEnv, err)
			return nil, errInvalidArguments
		}
	}

	p, flag := cmd.newFlagSet()
	err := ff.Parse(flag, args,
		ff.WithEnvVarPrefix(_envPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	if err != nil {
		if errors.Is(err, errHelp) {
			return nil, errHelp
		}
		// The flag package reports its own errors.
		// Errors from the config file need to be printed.
		if !strings.Contains(err.Error(), "error parsing commandline arguments") {
			fmt.Fprintln(cmd.Stderr, err)
		}
		return nil, err
	}
	args = flag.Args()

	if p.version {
		fmt.Fprintln(cmd.Stdout, "extractview", _version)
		return nil, errHelp
	}

	if p.help == DefaultHelp && len(args) > 0 {
		// The user might have done "-h foo"
		// instead of "-h=foo".
		// If the argument is a known help topic,
		// take it.
		if topic := strings.ToLower(args[0]); isHelpTopic(topic) {
			p.help = Help(topic)
		}
	}

	switch p.help {
	case NoHelp:
		// proceed as usual
	default:
		if err := p.help.Write(cmd.Stderr); err != nil {
			fmt.Fprintln(cmd.Stderr, err)
		}
		return nil, errHelp
	}

	p.Files = args
	if len(p.Files) == 0 && (p.Check || p.Export != "") {
		fmt.Fprintln(cmd.Stderr, "-check and -export need at least one response file.")
		_ = UsageHelp.Write(cmd.Stderr)
		return nil, errInvalidArguments
	}
	if p.Retries < 0 {
		fmt.Fprintln(cmd.Stderr, "-retries must not be negative.")
		return nil, errInvalidArguments
	}

	return p, nil
}

// overlapPolicy is the -overlap flag.
type overlapPolicy annotate.OverlapPolicy

var _ flag.Getter = (*overlapPolicy)(nil)

func (o *overlapPolicy) Get() any { return annotate.OverlapPolicy(*o) }

func (o *overlapPolicy) String() string {
	if annotate.OverlapPolicy(*o) == annotate.OverlapPassThrough {
		return "passthrough"
	}
	return "reject"
}

func (o *overlapPolicy) Set(s string) error {
	switch strings.ToLower(s) {
	case "reject":
		*o = overlapPolicy(annotate.OverlapReject)
	case "passthrough", "pass-through":
		*o = overlapPolicy(annotate.OverlapPassThrough)
	default:
		return errtrace.Wrap(fmt.Errorf("expected reject or passthrough, got %q", s))
	}
	return nil
}

// samplePath is a file holding a sample text.
type samplePath string

var _ flag.Getter = (*samplePath)(nil)

func (sp *samplePath) Get() any { return string(*sp) }

func (sp *samplePath) String() string { return string(*sp) }

func (sp *samplePath) Set(s string) error {
	*sp = samplePath(s)
	return nil
}
