package main

import (
	_ "embed"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"braces.dev/errtrace"
)

// Help is the -h/-help flag.
// Passing a topic to it prints help on that topic instead of the usage.
type Help string

// Help topics with special meaning.
const (
	NoHelp      Help = ""
	DefaultHelp Help = "default"
	UsageHelp   Help = "usage"
)

var (
	//go:embed help/default.txt
	_defaultHelp string

	//go:embed help/config.txt
	_configHelp string

	//go:embed help/overlap.txt
	_overlapHelp string

	_helpTopics = map[Help]string{
		DefaultHelp: _defaultHelp,
		UsageHelp:   usageLine(_defaultHelp),
		"config":    _configHelp,
		"overlap":   _overlapHelp,
	}
)

// usageLine is the first line of the default help, newline included.
func usageLine(help string) string {
	line, _, _ := strings.Cut(help, "\n")
	return line + "\n"
}

// isHelpTopic reports whether s names a topic Write knows about.
func isHelpTopic(s string) bool {
	_, ok := _helpTopics[Help(s)]
	return ok
}

// Write writes the help on this topic to the writer.
// Unknown topics fail with a list of the known ones.
func (h Help) Write(w io.Writer) error {
	if h == NoHelp {
		return nil
	}

	doc, ok := _helpTopics[h]
	if !ok {
		topics := slices.Sorted(maps.Keys(_helpTopics))
		return errtrace.Wrap(fmt.Errorf("unknown help topic %q: valid values are %q", string(h), topics))
	}

	_, err := io.WriteString(w, doc)
	return errtrace.Wrap(err)
}

var _ flag.Getter = (*Help)(nil)

// Get returns the topic.
func (h *Help) Get() any { return *h }

// IsBoolFlag allows "-h" without a topic.
func (*Help) IsBoolFlag() bool { return true }

func (h Help) String() string { return string(h) }

// Set records the requested topic.
// A bare "-h" asks for the default help.
func (h *Help) Set(s string) error {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "true":
		*h = DefaultHelp
	case "false":
		*h = NoHelp
	default:
		*h = Help(s)
	}
	return nil
}
