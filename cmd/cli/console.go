package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/quillback/studium/kernel/assistant"
	"github.com/quillback/studium/kernel/model/providers"
)

const interruptExitWindow = 2 * time.Second

type slashCommand struct {
	Usage       string
	Description string
	Handle      func(*cliConsole, []string) (bool, error)
}

type cliConsole struct {
	baseCtx context.Context

	asst         *assistant.Assistant
	modelAlias   string
	modelFactory *providers.Factory
	sessionID    string
	sessionIndex *sessionIndex
	version      string

	editor   lineEditor
	out      io.Writer
	renderer *answerRenderer
	commands map[string]slashCommand

	runMu           sync.Mutex
	activeRunCancel context.CancelFunc
	interruptMu     sync.Mutex
	lastInterruptAt time.Time
}

type cliConsoleConfig struct {
	BaseContext  context.Context
	Assistant    *assistant.Assistant
	ModelAlias   string
	ModelFactory *providers.Factory
	SessionID    string
	SessionIndex *sessionIndex
	HistoryFile  string
	Version      string
}

func newCLIConsole(cfg cliConsoleConfig) *cliConsole {
	commands := []string{"help", "version", "new", "courses", "outline", "sessions", "models", "model", "clear", "exit"}
	editor, _ := newLineEditor(lineEditorConfig{
		HistoryFile: cfg.HistoryFile,
		Commands:    commands,
	})
	var out io.Writer = os.Stdout
	if editor != nil {
		out = editor.Output()
	}
	console := &cliConsole{
		baseCtx:      cfg.BaseContext,
		asst:         cfg.Assistant,
		modelAlias:   cfg.ModelAlias,
		modelFactory: cfg.ModelFactory,
		sessionID:    cfg.SessionID,
		sessionIndex: cfg.SessionIndex,
		version:      strings.TrimSpace(cfg.Version),
		editor:       editor,
		out:          out,
		renderer:     newAnswerRenderer(out, !isTTY(os.Stdout)),
	}
	console.commands = map[string]slashCommand{
		"help":     {Usage: "/help", Description: "Show command help", Handle: handleHelp},
		"version":  {Usage: "/version", Description: "Show version info", Handle: handleVersion},
		"new":      {Usage: "/new", Description: "Start a fresh conversation", Handle: handleNew},
		"courses":  {Usage: "/courses", Description: "List loaded courses", Handle: handleCourses},
		"outline":  {Usage: "/outline <course>", Description: "Show a course outline", Handle: handleOutline},
		"sessions": {Usage: "/sessions [resume <session-id>]", Description: "List or resume past sessions", Handle: handleSessions},
		"models":   {Usage: "/models", Description: "List configured model aliases", Handle: handleModels},
		"model":    {Usage: "/model <alias>", Description: "Switch the active model", Handle: handleModel},
		"clear":    {Usage: "/clear", Description: "Clear current conversation history", Handle: handleClear},
		"exit":     {Usage: "/exit", Description: "Exit the CLI", Handle: handleExit},
	}
	return console
}

func (c *cliConsole) loop() error {
	c.printf("Course assistant ready. Ask about your courses, /help for commands.\n")
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	exitCh := make(chan struct{}, 1)
	stopSignals := make(chan struct{})
	go c.handleInterruptSignals(sigCh, exitCh, stopSignals)
	defer func() {
		close(stopSignals)
		signal.Stop(sigCh)
		if c.editor != nil {
			_ = c.editor.Close()
		}
	}()
	for {
		select {
		case <-exitCh:
			c.printf("\n")
			return nil
		default:
		}
		line, err := c.editor.ReadLine("> ")
		if err != nil {
			if errors.Is(err, errInputInterrupt) {
				if c.registerInterruptAndShouldExit() {
					c.printf("\n")
					return nil
				}
				c.printf("\n")
				continue
			}
			if errors.Is(err, errInputEOF) {
				c.printf("\n")
				return nil
			}
			return err
		}
		if line == "" {
			c.resetInterruptWindow()
			continue
		}
		c.resetInterruptWindow()
		if strings.HasPrefix(line, "/") {
			exitNow, err := c.handleSlash(line)
			if err != nil {
				c.renderer.PrintError(err)
			}
			if exitNow {
				return nil
			}
			continue
		}
		if err := c.runQuery(line); err != nil {
			if errors.Is(err, context.Canceled) {
				c.printf("! interrupted\n")
				continue
			}
			c.renderer.PrintError(err)
		}
	}
}

func (c *cliConsole) handleInterruptSignals(sigCh <-chan os.Signal, exitCh chan<- struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-sigCh:
			if c.cancelActiveRun() {
				c.noteInterrupt()
				continue
			}
			// readline already reports Ctrl+C via errInputInterrupt; avoid
			// double-counting the same keypress as two interrupts.
			if c.usesReadlineEditor() {
				continue
			}
			if c.registerInterruptAndShouldExit() {
				select {
				case exitCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (c *cliConsole) handleSlash(line string) (bool, error) {
	parts := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(parts) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(parts[0])
	handler, ok := c.commands[cmd]
	if !ok {
		return false, fmt.Errorf("unknown command %q, use /help", cmd)
	}
	return handler.Handle(c, parts[1:])
}

func (c *cliConsole) runQuery(input string) error {
	runCtx, cancel := context.WithCancel(c.baseCtx)
	c.setActiveRunCancel(cancel)
	defer func() {
		c.clearActiveRunCancel()
		cancel()
	}()
	answer, err := c.asst.Query(runCtx, input, c.sessionID)
	if err != nil {
		return err
	}
	c.sessionID = answer.SessionID
	c.renderer.PrintAnswer(answer.Text)
	c.renderer.PrintSources(answer.Sources)
	if c.sessionIndex != nil {
		if err := c.sessionIndex.Touch(c.sessionID, input, time.Now()); err != nil {
			c.printf("warn: update session index failed: %v\n", err)
		}
	}
	return nil
}

func (c *cliConsole) setActiveRunCancel(cancel context.CancelFunc) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.activeRunCancel = cancel
}

func (c *cliConsole) clearActiveRunCancel() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.activeRunCancel = nil
}

func (c *cliConsole) cancelActiveRun() bool {
	c.runMu.Lock()
	cancel := c.activeRunCancel
	c.runMu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

func (c *cliConsole) usesReadlineEditor() bool {
	_, ok := c.editor.(*readlineEditor)
	return ok
}

func (c *cliConsole) noteInterrupt() {
	c.interruptMu.Lock()
	defer c.interruptMu.Unlock()
	c.lastInterruptAt = time.Now()
}

func (c *cliConsole) registerInterruptAndShouldExit() bool {
	c.interruptMu.Lock()
	defer c.interruptMu.Unlock()
	now := time.Now()
	shouldExit := !c.lastInterruptAt.IsZero() && now.Sub(c.lastInterruptAt) <= interruptExitWindow
	c.lastInterruptAt = now
	return shouldExit
}

func (c *cliConsole) resetInterruptWindow() {
	c.interruptMu.Lock()
	defer c.interruptMu.Unlock()
	c.lastInterruptAt = time.Time{}
}

func handleHelp(c *cliConsole, args []string) (bool, error) {
	_ = args
	c.printf("Available commands:\n")
	order := []string{"help", "version", "new", "courses", "outline", "sessions", "models", "model", "clear", "exit"}
	for _, name := range order {
		cmd := c.commands[name]
		c.printf("  %-32s %s\n", cmd.Usage, cmd.Description)
	}
	return false, nil
}

func handleVersion(c *cliConsole, args []string) (bool, error) {
	_ = args
	if c.version == "" {
		c.printf("version=unknown\n")
		return false, nil
	}
	c.printf("version=%s\n", c.version)
	return false, nil
}

func handleNew(c *cliConsole, args []string) (bool, error) {
	if len(args) != 0 {
		return false, fmt.Errorf("usage: /new")
	}
	previous := c.sessionID
	c.sessionID = c.asst.NewSession()
	if previous == "" {
		c.printf("new session started: %s\n", c.sessionID)
		return false, nil
	}
	c.printf("new session started: %s (from %s)\n", c.sessionID, previous)
	return false, nil
}

func handleCourses(c *cliConsole, args []string) (bool, error) {
	_ = args
	count, titles := c.asst.Analytics()
	if count == 0 {
		c.printf("no courses loaded\n")
		return false, nil
	}
	c.printf("courses (%d):\n", count)
	for _, title := range titles {
		c.printf("  - %s\n", title)
	}
	return false, nil
}

func handleOutline(c *cliConsole, args []string) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("usage: /outline <course>")
	}
	name := strings.Join(args, " ")
	c.printf("%s\n", c.asst.CourseOutline(c.baseCtx, name))
	return false, nil
}

func handleSessions(c *cliConsole, args []string) (bool, error) {
	if c.sessionIndex == nil {
		return false, fmt.Errorf("session index is not available")
	}
	if len(args) == 0 {
		return printRecentSessions(c)
	}
	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "resume":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: /sessions resume <session-id>")
		}
		target := strings.TrimSpace(args[1])
		if target == "" {
			return false, fmt.Errorf("session-id is required")
		}
		c.sessionID = target
		c.printf("session resumed: %s\n", c.sessionID)
		return false, nil
	default:
		return false, fmt.Errorf("usage: /sessions [resume <session-id>]")
	}
}

func printRecentSessions(c *cliConsole) (bool, error) {
	items, err := c.sessionIndex.List(20)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		c.printf("sessions: (empty)\n")
		return false, nil
	}
	c.printf("sessions:\n")
	now := time.Now()
	for _, one := range items {
		marker := " "
		if one.SessionID == c.sessionID {
			marker = "*"
		}
		preview := strings.TrimSpace(one.LastQuestion)
		if preview != "" {
			runes := []rune(preview)
			if len(runes) > 48 {
				preview = string(runes[:48]) + "..."
			}
		} else {
			preview = "-"
		}
		age := "-"
		if !one.LastAskedAt.IsZero() {
			age = now.Sub(one.LastAskedAt).Round(time.Second).String()
		}
		c.printf(" %s %s  exchanges=%d  last=%s ago  q=%s\n", marker, one.SessionID, one.ExchangeCount, age, preview)
	}
	return false, nil
}

func handleModels(c *cliConsole, args []string) (bool, error) {
	_ = args
	if c.modelFactory == nil {
		return false, fmt.Errorf("model factory is not configured")
	}
	list := c.modelFactory.ListModels()
	if len(list) == 0 {
		return false, fmt.Errorf("no models configured, edit the config file")
	}
	current := strings.ToLower(strings.TrimSpace(c.modelAlias))
	c.printf("models:\n")
	for _, alias := range list {
		marker := " "
		if alias == current {
			marker = "*"
		}
		c.printf("  %s %s\n", marker, alias)
	}
	return false, nil
}

func handleModel(c *cliConsole, args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("usage: /model <alias>")
	}
	if c.modelFactory == nil {
		return false, fmt.Errorf("model factory is not configured")
	}
	alias := strings.ToLower(strings.TrimSpace(args[0]))
	llm, err := c.modelFactory.NewByAlias(alias)
	if err != nil {
		return false, err
	}
	if err := c.asst.SetLLM(llm); err != nil {
		return false, err
	}
	c.modelAlias = alias
	c.printf("model switched to %s\n", alias)
	return false, nil
}

func handleClear(c *cliConsole, args []string) (bool, error) {
	if len(args) != 0 {
		return false, fmt.Errorf("usage: /clear")
	}
	if c.sessionID == "" {
		c.printf("no active session\n")
		return false, nil
	}
	c.asst.ClearSession(c.sessionID)
	c.printf("history cleared for %s\n", c.sessionID)
	return false, nil
}

func handleExit(c *cliConsole, args []string) (bool, error) {
	_ = c
	_ = args
	return true, nil
}

func (c *cliConsole) printf(format string, args ...any) {
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}
