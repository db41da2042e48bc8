// Command hotki runs the resident hotkey engine server of spec.md §1: an
// event-tap-driven binding/mode state machine, window placement engine,
// and world model, exposed over the Unix-socket IPC protocol in
// internal/ipc for a separate client process to drive.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cortesi/hotki/internal/applog"
	"github.com/cortesi/hotki/internal/config"
	"github.com/cortesi/hotki/internal/ipc"
	"github.com/cortesi/hotki/internal/theme"
)

func main() {
	var (
		serverMode = flag.Bool("server", false, "run as the resident server (required)")
		socketPath = flag.String("socket", "", "unix socket path (default: per-uid path under the temp dir)")
		configPath = flag.String("config", "", "path to a resolved JSON config to load at startup")
		themeDir   = flag.String("theme-dir", "", "directory of .toml theme overlays")
		logPath    = flag.String("log", "", "log file path (default: stderr)")
	)
	flag.Parse()

	if !*serverMode {
		fmt.Fprintln(os.Stderr, "hotki: pass --server to run the resident engine (this binary has no other mode)")
		os.Exit(2)
	}

	logger, closeLog, err := openLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hotki: opening log: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}
	logger.SetMinLevel(levelFromEnv())

	themes, err := theme.LoadDir(*themeDir)
	if err != nil {
		logger.ErrorErr(applog.CatTheme, "loading theme directory", err, "dir", *themeDir)
		os.Exit(1)
	}

	cfg := &config.Config{Root: &config.Keys{}}
	if *configPath != "" {
		loaded, warnings, err := config.LoadFile(*configPath)
		if err != nil {
			logger.ErrorErr(applog.CatConfig, "loading config", err, "path", *configPath)
			os.Exit(1)
		}
		for _, w := range warnings {
			logger.Warn(applog.CatConfig, w.Message)
		}
		cfg = loaded
	}

	path := *socketPath
	if path == "" {
		path = ipc.DefaultSocketPath()
	}

	backend := NewBackend(cfg, themes, logger)

	events := make(chan ipc.Envelope, 64)
	backend.events = events

	server := ipc.NewServer(path, backend.Handle, events)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runPlatform(ctx, backend); err != nil {
		logger.ErrorErr(applog.CatWinops, "starting platform runtime", err)
		os.Exit(1)
	}

	logger.Info(applog.CatIPC, "listening", "socket", path)
	if err := server.Run(ctx); err != nil {
		logger.ErrorErr(applog.CatIPC, "server exited", err)
		os.Exit(1)
	}
}

func openLogger(path string) (*applog.Logger, func() error, error) {
	if path == "" {
		return applog.New(os.Stderr), nil, nil
	}
	return applog.Open(path)
}

func levelFromEnv() applog.Level {
	switch os.Getenv("RUST_LOG") {
	case "debug", "trace":
		return applog.LevelDebug
	case "warn":
		return applog.LevelWarn
	case "error":
		return applog.LevelError
	default:
		return applog.LevelInfo
	}
}
