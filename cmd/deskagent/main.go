// Deskagent is a loan-desk assistant agent.
//
// It exposes a small HTTP API backed by a local reasoning engine
// (Ollama) and a fixed catalog of lending tools. Configuration is
// loaded from a single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	deskagent serve            Start the API server
//	deskagent init [dir]       Initialize a working directory with defaults
//	deskagent ask <question>   Ask a single question (for testing)
//	deskagent version          Print version and build information
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/creditdesk/desk-agent/internal/agent"
	"github.com/creditdesk/desk-agent/internal/api"
	"github.com/creditdesk/desk-agent/internal/buildinfo"
	"github.com/creditdesk/desk-agent/internal/config"
	"github.com/creditdesk/desk-agent/internal/conversation"
	"github.com/creditdesk/desk-agent/internal/llm"
	"github.com/creditdesk/desk-agent/internal/taskstore"
	"github.com/creditdesk/desk-agent/internal/tools"
)

// main constructs the OS-level environment and delegates to [run] so
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run parses arguments and dispatches to the subcommand. Arguments are
// parsed by hand: the flag package relies on package-level globals,
// which interferes with calling run() concurrently from tests, and the
// argument surface here is tiny.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: deskagent ask <question>")
		}
		return runAsk(ctx, stdout, configPath, strings.Join(cmdArgs, " "))
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, `deskagent - loan desk assistant agent

Usage:
  deskagent serve            Start the API server
  deskagent init [dir]       Initialize a working directory with defaults
  deskagent ask <question>   Ask a single question (for testing)
  deskagent version          Print version and build information

Flags:
  -config <path>   Explicit config file path`)
	return nil
}

// runServe starts the API server and blocks until shutdown.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting deskagent",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"built", buildinfo.BuildTime,
	)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Reconfigure now that the desired level is known. The initial
	// Info-level logger covers only the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"model", cfg.Model.Name,
		"ollama_url", cfg.Model.OllamaURL,
	)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	controller, engine, tasks, cleanup, err := buildAgent(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	listen := fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port)
	server := api.NewServer(listen, controller, engine, tasks, logger)

	// SIGINT/SIGTERM cancellation flows through the same ctx used by
	// all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("deskagent stopped")
	return nil
}

// runAsk runs a single turn against the configured engine and prints
// the answer. Useful for smoke-testing a deployment.
func runAsk(ctx context.Context, stdout io.Writer, configPath, question string) error {
	logger := newLogger(io.Discard, slog.LevelInfo)

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	controller, _, _, cleanup, err := buildAgent(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintln(stdout, controller.Run(ctx, question))
	return nil
}

// buildAgent wires the full component graph from configuration:
// conversation log, task store, tool catalog, override router,
// notifier, and the turn controller. The returned cleanup closes the
// SQLite handles.
func buildAgent(cfg *config.Config, logger *slog.Logger) (*agent.Controller, llm.Client, *taskstore.Store, func(), error) {
	convLog, err := conversation.NewSQLiteLog(cfg.DataDir+"/conversation.db", logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open conversation database: %w", err)
	}

	tasks, err := taskstore.New(cfg.DataDir + "/tasks.db")
	if err != nil {
		convLog.Close()
		return nil, nil, nil, nil, fmt.Errorf("open task database: %w", err)
	}

	cleanup := func() {
		tasks.Close()
		convLog.Close()
	}

	engine := llm.NewOllamaClient(
		cfg.Model.OllamaURL,
		cfg.Model.Name,
		time.Duration(cfg.Model.TimeoutSec)*time.Second,
		logger,
	)

	workflow := tools.NewWorkflowClient(
		cfg.Workflow.PipelineURL,
		cfg.Workflow.CreateWorkItemURL,
		time.Duration(cfg.Workflow.TimeoutSec)*time.Second,
	)

	var files *tools.FileTools
	if cfg.Workspace.Path != "" {
		files = tools.NewFileTools(cfg.Workspace.Path)
	}

	catalog := tools.NewRegistry(workflow, files, tasks, logger)

	router, err := agent.NewOverrideRouter(catalog)
	if err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	}

	notifier := agent.NewNotifier(tasks, logger)
	controller := agent.New(logger, convLog, engine, catalog, router, notifier, cfg.Agent.MaxToolSteps)
	return controller, engine, tasks, cleanup, nil
}

// newLogger creates the shared structured logger. All log output goes
// through slog with the custom trace level name mapped in.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and parses the YAML configuration file, falling
// back to built-in defaults when no file exists and none was requested
// explicitly.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		return config.Default(), "(defaults)", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}
