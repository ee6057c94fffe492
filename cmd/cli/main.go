package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/quillback/studium/internal/envload"
	"github.com/quillback/studium/internal/version"
	"github.com/quillback/studium/kernel/assistant"
	"github.com/quillback/studium/kernel/session"
	"github.com/quillback/studium/kernel/session/filestore"
	vectorinmemory "github.com/quillback/studium/kernel/vectorstore/inmemory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := runCLI(ctx, os.Args[1:]); err != nil {
		exitErr(err)
	}
}

func runCLI(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := envload.LoadNearest(); err != nil {
		fmt.Fprintf(os.Stderr, "warn: load .env failed: %v\n", err)
	}

	defaultConfigFile, err := configFilePath()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("studium", flag.ContinueOnError)
	var (
		modelAlias  = fs.String("model", "", "Model alias (default from config)")
		configFile  = fs.String("config", defaultConfigFile, "Config file path")
		docsDir     = fs.String("docs", "", "Course documents folder (default from config)")
		input       = fs.String("input", "", "Ask one question and exit")
		sessionID   = fs.String("session", "", "Resume an existing session id")
		clearDocs   = fs.Bool("clear", false, "Clear indexed courses before loading the docs folder")
		showVersion = fs.Bool("version", false, "Show version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.String())
		return nil
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", fs.Args())
	}

	cfg, err := loadOrInitAppConfig(*configFile)
	if err != nil {
		return err
	}
	factory, err := buildFactory(cfg)
	if err != nil {
		return err
	}
	alias := strings.ToLower(strings.TrimSpace(*modelAlias))
	if alias == "" {
		alias = cfg.DefaultModel
	}
	llm, err := factory.NewByAlias(alias)
	if err != nil {
		return err
	}

	var sessions session.Store
	if transcriptsDir, err := transcriptsPath(); err == nil {
		if fs, err := filestore.New(transcriptsDir, cfg.MaxHistory); err == nil {
			sessions = fs
		} else {
			fmt.Fprintf(os.Stderr, "warn: open transcript store failed: %v\n", err)
		}
	}

	store := vectorinmemory.New(cfg.MaxResults)
	asst, err := assistant.New(llm, store, assistant.Config{
		ChunkSize:     cfg.ChunkSize,
		ChunkOverlap:  cfg.ChunkOverlap,
		MaxToolRounds: cfg.MaxToolRounds,
		MaxHistory:    cfg.MaxHistory,
		Sessions:      sessions,
	})
	if err != nil {
		return err
	}

	docs := strings.TrimSpace(*docsDir)
	if docs == "" {
		docs = cfg.DocsDir
	}
	if docs != "" {
		coursesAdded, chunksAdded, err := asst.AddCourseFolder(docs, *clearDocs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: load courses from %s: %v\n", docs, err)
		} else if coursesAdded > 0 {
			fmt.Fprintf(os.Stderr, "loaded %d courses (%d chunks) from %s\n", coursesAdded, chunksAdded, docs)
		}
	}

	if strings.TrimSpace(*input) != "" {
		answer, err := asst.Query(ctx, *input, strings.TrimSpace(*sessionID))
		if err != nil {
			return err
		}
		renderer := newAnswerRenderer(os.Stdout, !isTTY(os.Stdout))
		renderer.PrintAnswer(answer.Text)
		renderer.PrintSources(answer.Sources)
		return nil
	}

	indexPath, err := sessionIndexPath()
	if err != nil {
		return err
	}
	index, err := newSessionIndex(indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: open session index failed: %v\n", err)
		index = nil
	}
	defer func() {
		if closeErr := index.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warn: close session index failed: %v\n", closeErr)
		}
	}()
	historyPath, err := historyFilePath()
	if err != nil {
		return err
	}

	console := newCLIConsole(cliConsoleConfig{
		BaseContext:  ctx,
		Assistant:    asst,
		ModelAlias:   alias,
		ModelFactory: factory,
		SessionID:    strings.TrimSpace(*sessionID),
		SessionIndex: index,
		HistoryFile:  historyPath,
		Version:      version.String(),
	})
	return console.loop()
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
