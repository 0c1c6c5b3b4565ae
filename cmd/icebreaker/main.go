// Package main is the icebreaker CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hyperjump/icebreaker/internal/cli"
	"github.com/hyperjump/icebreaker/internal/config"
	"github.com/hyperjump/icebreaker/internal/engine"
	"github.com/hyperjump/icebreaker/internal/llm"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/profile"
	"github.com/hyperjump/icebreaker/internal/server"
	"github.com/hyperjump/icebreaker/internal/storage"
	"github.com/hyperjump/icebreaker/internal/tui"
	"github.com/hyperjump/icebreaker/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/icebreaker/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if present, and a missing default file means built-in
// defaults. Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := config.Default()
			cfg.LoadEnv()
			return cfg, "", cfg.Validate()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	cfg.LoadEnv()
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve", "server":
		runServe()
	case "ingest":
		runIngest()
	case "chat":
		runChat()
	case "history":
		runHistory()
	case "status":
		runStatus()
	case "check":
		runCheck()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("icebreaker version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and builds a logger for a subcommand.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if resolved == "" {
		resolved = "(defaults)"
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

func mustComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Components {
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return components
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	components := mustComponents(context.Background(), cfg, logger)
	defer components.Close()

	var usage server.DiskUsager
	if components.Store != nil {
		usage = components.Store
	}
	srv := server.NewServer(components.Engine, cfg, usage, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...", zap.Int("sessions", components.Engine.Sessions().Len()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// profileFlags are shared by ingest and chat.
type profileFlags struct {
	mock    *bool
	profile *string
	model   *string
}

func addProfileFlags(fs *flag.FlagSet) profileFlags {
	return profileFlags{
		mock:    fs.Bool("mock", false, "use the built-in sample profile"),
		profile: fs.String("profile", "", "profile file: .json, .yaml, or a resume in .md, .txt, .pdf, .docx"),
		model:   fs.String("model", "", "generation model for the session (default from config)"),
	}
}

// request builds the ingest request described by the flags.
func (p profileFlags) request() (*models.IngestRequest, error) {
	req := &models.IngestRequest{Mock: *p.mock, Model: *p.model}
	if *p.profile != "" {
		rec, err := profile.Load(*p.profile)
		if err != nil {
			return nil, err
		}
		req.Profile = rec
	}
	if err := req.Validate(); err != nil {
		return nil, errors.New("pass exactly one of --mock or --profile")
	}
	return req, nil
}

func (p profileFlags) record(req *models.IngestRequest) *models.ProfileRecord {
	if req.Mock {
		return profile.Mock()
	}
	return req.Profile
}

func ingestLocal(ctx context.Context, eng *engine.Engine, p profileFlags, req *models.IngestRequest) (*models.IngestResponse, error) {
	res, err := eng.Ingest(ctx, p.record(req), engine.WithModel(req.Model))
	if err != nil {
		return nil, errors.New(engine.DescribeIngestError(err))
	}
	return &models.IngestResponse{
		SessionID: res.SessionID,
		Summary:   res.Summary,
		Outcome:   res.Outcome.String(),
		Nodes:     res.Nodes,
		Model:     res.Model,
	}, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	serverURL := fs.String("server", "", "server URL; empty processes the profile in this process")
	outputFormat := fs.String("output", "text", "output format: text or json")
	pf := addProfileFlags(fs)
	_ = fs.Parse(os.Args[2:])

	req, err := pf.request()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	format := cli.ParseFormat(*outputFormat)

	if *serverURL != "" {
		res, err := newClient(*serverURL).ingest(req)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		_ = cli.WriteIngestResult(os.Stdout, res, format)
		return
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	ctx, cancel := signalContext()
	defer cancel()
	components := mustComponents(ctx, cfg, logger)
	defer components.Close()

	res, err := ingestLocal(ctx, components.Engine, pf, req)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	_ = cli.WriteIngestResult(os.Stdout, res, format)
}

// localAsker binds an in-process engine to one session for the chat UI.
type localAsker struct {
	ctx       context.Context
	eng       *engine.Engine
	sessionID string
}

func (a localAsker) Ask(question string) *models.AskResponse {
	r := a.eng.Ask(a.ctx, a.sessionID, question)
	return &models.AskResponse{SessionID: a.sessionID, Answer: r.Text, Outcome: r.Outcome.String()}
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	serverURL := fs.String("server", "", "server URL; empty runs the engine in this process")
	sessionID := fs.String("session", "", "existing session id on the server (skips ingest)")
	plain := fs.Bool("plain", false, "line-oriented chat instead of the full-screen UI")
	pf := addProfileFlags(fs)
	_ = fs.Parse(os.Args[2:])

	var (
		asker   tui.Asker
		summary string
		title   = "Icebreaker"
	)
	if *serverURL != "" {
		c := newClient(*serverURL)
		id := *sessionID
		if id == "" {
			req, err := pf.request()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			res, err := c.ingest(req)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			id, summary = res.SessionID, res.Summary
		}
		asker = remoteAsker{c: c, sessionID: id}
		title += " · session " + id
	} else {
		req, err := pf.request()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		// chat logs would draw over the UI
		cfg, logger := setup(*configPath, *debug)
		if !*plain && !*debug {
			logger = zap.NewNop()
		}
		defer logger.Sync()
		ctx, cancel := signalContext()
		defer cancel()
		components := mustComponents(ctx, cfg, logger)
		defer components.Close()

		fmt.Println("Processing profile...")
		res, err := ingestLocal(ctx, components.Engine, pf, req)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		summary = res.Summary
		asker = localAsker{ctx: ctx, eng: components.Engine, sessionID: res.SessionID}
		if name := pf.record(req).FullName; name != "" {
			title += " · " + name
		}
	}

	if *plain {
		if err := plainChat(os.Stdin, os.Stdout, asker, summary); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if _, err := tea.NewProgram(tui.New(asker, title, summary), tea.WithAltScreen()).Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// plainChat reads one question per line until EOF, "exit" or "quit".
func plainChat(in io.Reader, out io.Writer, asker tui.Asker, summary string) error {
	if summary != "" {
		fmt.Fprintf(out, "%s\n\n", summary)
	}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		_ = cli.WriteReply(out, asker.Ask(q), cli.OutputText)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for reading the transcript directly)")
	serverURL := fs.String("server", "", "server URL; empty reads the configured transcript database")
	offset := fs.Int("offset", 0, "turns to skip")
	limit := fs.Int("limit", 100, "maximum turns to show")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() != 1 {
		fmt.Println("Usage: icebreaker history [flags] <session-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)
	format := cli.ParseFormat(*outputFormat)

	var (
		turns []*models.Turn
		err   error
	)
	if *serverURL != "" {
		turns, err = newClient(*serverURL).history(id, *offset, *limit)
	} else {
		turns, err = localHistory(*configPath, id, *offset, *limit)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteTurns(os.Stdout, turns, format)
}

func localHistory(configPath, id string, offset, limit int) ([]*models.Turn, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	path := cfg.Storage.TranscriptPath
	if path == "" || path == storage.MemoryPath {
		return nil, errors.New("no transcript database configured (storage.transcript_path)")
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	ctx := context.Background()
	if _, err := store.GetSession(ctx, id); err != nil {
		return nil, err
	}
	return store.ListTurns(ctx, id, offset, limit)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct transcript mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL; empty reads the configured transcript directly")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var (
		st  map[string]interface{}
		err error
	)
	if *serverURL != "" {
		st, err = newClient(*serverURL).status()
	}
	if *serverURL == "" || err != nil {
		if err != nil {
			fmt.Printf("Server not reachable (%v); reading local state.\n", err)
		}
		st, err = localStatus(*configPath)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cli.ParseFormat(*outputFormat) == cli.OutputJSON {
		_ = cli.WriteJSON(os.Stdout, st)
		return
	}
	cli.WriteStatus(os.Stdout, st)
}

func localStatus(configPath string) (map[string]interface{}, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	st := map[string]interface{}{
		"default_model": cfg.Generation.DefaultModel,
		"models":        cfg.Generation.Models,
		"config": map[string]interface{}{
			"embedding_provider":  cfg.Embedding.Provider,
			"generation_provider": cfg.Generation.Provider,
			"transcript_path":     cfg.Storage.TranscriptPath,
		},
	}
	path := cfg.Storage.TranscriptPath
	if path == "" || path == storage.MemoryPath {
		return st, nil
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	ctx := context.Background()
	if n, err := store.CountSessions(ctx); err == nil {
		st["recorded_sessions"] = n
	}
	if n, err := store.CountTurns(ctx); err == nil {
		st["recorded_turns"] = n
	}
	if n, err := store.DiskUsage(); err == nil {
		st["disk_usage_bytes"] = n
	}
	return st, nil
}

func runCheck() {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	model := fs.String("model", "", "check only this generation model")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	ctx, cancel := signalContext()
	defer cancel()
	components := mustComponents(ctx, cfg, logger)
	defer components.Close()

	if !checkProviders(ctx, os.Stdout, components, *model) {
		os.Exit(1)
	}
}

// checkProviders embeds a probe text and sends a one-word prompt to each model.
// It reports whether everything answered.
func checkProviders(ctx context.Context, out io.Writer, c *Components, only string) bool {
	ok := true
	vec, err := c.Embedder.Embed(ctx, "hello")
	if err != nil {
		fmt.Fprintf(out, "embedding %-24s FAIL  %v\n", c.Embedder.Name(), err)
		ok = false
	} else {
		fmt.Fprintf(out, "embedding %-24s OK    %d dimensions\n", c.Embedder.Name(), len(vec))
	}

	names := c.Registry.Names()
	if only != "" {
		names = []string{only}
	}
	for _, name := range names {
		gen, err := c.Registry.Get(name)
		if err == nil {
			var reply string
			reply, err = llm.Check(ctx, gen)
			if err == nil {
				fmt.Fprintf(out, "model     %-24s OK    %q\n", name, utils.Truncate(reply, 40))
				continue
			}
		}
		fmt.Fprintf(out, "model     %-24s FAIL  %v\n", name, err)
		ok = false
	}
	return ok
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", "config.yaml", "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*path, *force); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s. Put GEMINI_API_KEY (or OPENAI_API_KEY) in the environment or a .env file.\n", *path)
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := config.Default()
	cfg.Storage.TranscriptPath = "./icebreaker.db"
	return config.Save(path, cfg)
}

func printUsage() {
	fmt.Println(`icebreaker - chat about a professional profile

Usage:
  icebreaker serve [flags]               Start the HTTP server
  icebreaker ingest [flags]              Process a profile and print interesting facts
  icebreaker chat [flags]                Process a profile and chat about it
  icebreaker history [flags] <session>   Show a session transcript
  icebreaker status [flags]              Show sessions, models and transcript usage
  icebreaker check [flags]               Test the embedding and generation providers
  icebreaker init [flags]                Write a default config file
  icebreaker version                     Show version
  icebreaker help                        Show this help

Common Flags:
  --config string    Config file path (default: ./config.yaml, then /usr/local/etc/icebreaker/config.yaml)
  --debug            Enable debug logging

Profile Flags (ingest, chat):
  --mock             Use the built-in sample profile
  --profile string   Profile file: .json, .yaml, or a resume in .md, .txt, .pdf, .docx
  --model string     Generation model for the session (default from config)
  --server string    Server URL; empty runs the engine in this process

Chat Flags:
  --session string   Existing session id on the server (skips ingest)
  --plain            Line-oriented chat instead of the full-screen UI

History / Status Flags:
  --server string    Server URL (status default: http://localhost:8080)
  --output string    Output format: text or json

Examples:
  icebreaker init
  icebreaker chat --mock
  icebreaker chat --profile jane.pdf --model gemini-2.5-pro
  icebreaker serve
  icebreaker ingest --server http://localhost:8080 --profile jane.json
  icebreaker chat --server http://localhost:8080 --session <id>
  icebreaker history --server http://localhost:8080 <id>
  icebreaker check`)
}
