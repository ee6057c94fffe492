package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/quillback/studium/kernel/tool"
)

var (
	accent  = color.New(color.FgCyan)
	dimText = color.New(color.Faint)
	errText = color.New(color.FgRed)
)

// answerRenderer prints model answers, as rendered markdown on a terminal
// and as plain text everywhere else.
type answerRenderer struct {
	out      io.Writer
	markdown *glamour.TermRenderer
}

func newAnswerRenderer(out io.Writer, plain bool) *answerRenderer {
	r := &answerRenderer{out: out}
	if plain {
		return r
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		r.markdown = md
	}
	return r
}

func (r *answerRenderer) PrintAnswer(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(text); err == nil {
			fmt.Fprint(r.out, rendered)
			return
		}
	}
	fmt.Fprintln(r.out, text)
}

func (r *answerRenderer) PrintSources(sources []tool.Source) {
	if len(sources) == 0 {
		return
	}
	dimText.Fprintln(r.out, "Sources:")
	seen := map[string]struct{}{}
	for _, s := range sources {
		key := s.Text + "|" + s.URL
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if s.URL != "" {
			dimText.Fprintf(r.out, "  - %s (%s)\n", s.Text, s.URL)
			continue
		}
		dimText.Fprintf(r.out, "  - %s\n", s.Text)
	}
}

func (r *answerRenderer) PrintError(err error) {
	errText.Fprintf(r.out, "error: %v\n", err)
}

func (r *answerRenderer) PrintNotice(format string, args ...any) {
	dimText.Fprintf(r.out, format+"\n", args...)
}

func (r *answerRenderer) PrintHeading(text string) {
	accent.Fprintln(r.out, text)
}
