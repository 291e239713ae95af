// admitcon - a terminal console for the admissions assistant backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/admitcon-tui/internal/admin"
	"github.com/jeranaias/admitcon-tui/internal/api"
	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/chat"
	"github.com/jeranaias/admitcon-tui/internal/cli"
	"github.com/jeranaias/admitcon-tui/internal/config"
	"github.com/jeranaias/admitcon-tui/internal/history"
	"github.com/jeranaias/admitcon-tui/internal/store"
	"github.com/jeranaias/admitcon-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	var (
		lineMode    = flag.Bool("cli", false, "use the plain line-mode interface instead of the TUI")
		showVersion = flag.Bool("version", false, "print version and exit")
		serverURL   = flag.String("server", "", "backend base URL (overrides config)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("admitcon %s (%s)\n", Version, GitCommit)
		return
	}

	if err := run(*lineMode, *serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "admitcon: %v\n", err)
		os.Exit(1)
	}
}

func run(lineMode bool, serverURL string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server.BaseURL = serverURL
	}
	if err := config.EnsureDir(); err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.Server.BaseURL).
		WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second)

	jar, err := store.NewJar(dir)
	if err != nil {
		return fmt.Errorf("cookie store: %w", err)
	}
	local, err := store.NewLocal(dir)
	if err != nil {
		return fmt.Errorf("local store: %w", err)
	}

	var hist *history.Store
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			return err
		}
		hist, err = history.Open(path)
		if err != nil {
			// The cache is an optional mirror; run without it.
			fmt.Fprintf(os.Stderr, "admitcon: local history unavailable: %v\n", err)
			hist = nil
		} else {
			defer hist.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if lineMode {
		return runCLI(ctx, cfg, client, jar, local, hist)
	}
	return runTUI(ctx, cfg, client, jar, local, hist)
}

func chatOptions(cfg *config.Config, hist *history.Store) []chat.Option {
	opts := []chat.Option{
		chat.WithSendLimit(rate.NewLimiter(rate.Limit(cfg.Chat.SendRatePerSec), cfg.Chat.SendBurst)),
	}
	if hist != nil {
		opts = append(opts, chat.WithRecorder(hist))
	}
	return opts
}

func runTUI(ctx context.Context, cfg *config.Config, client *api.Client, jar *store.Jar, local *store.Local, hist *history.Store) error {
	router := ui.NewRouter(auth.RouteLogin)
	session := auth.NewManager(client, jar, local, router,
		auth.WithVerifyInterval(time.Duration(cfg.Server.VerifyIntervalSecs)*time.Second))
	chatMgr := chat.NewManager(client, jar, router, chatOptions(cfg, hist)...)
	adminSv := admin.NewService(client, jar, nil)

	app := ui.NewApp(cfg, router, session, chatMgr, adminSv)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	router.Attach(p)

	// Background session verification; a failed probe redirects the
	// UI to the login screen through the router.
	go session.StartVerifyLoop(ctx)

	// Hot-reload the backend URL when the config file changes.
	if path, err := config.PathTOML(); err == nil {
		if watcher, err := config.NewWatcher(path, cfg, func(next *config.Config) {
			client.SetBaseURL(next.Server.BaseURL)
		}, nil); err == nil {
			go watcher.Run(ctx)
		}
	}

	_, err := p.Run()
	return err
}

func runCLI(ctx context.Context, cfg *config.Config, client *api.Client, jar *store.Jar, local *store.Local, hist *history.Store) error {
	nav := cli.NewHeadless()
	session := auth.NewManager(client, jar, local, nav,
		auth.WithVerifyInterval(time.Duration(cfg.Server.VerifyIntervalSecs)*time.Second))
	chatMgr := chat.NewManager(client, jar, nav, chatOptions(cfg, hist)...)

	repl := cli.NewREPL(session, chatMgr, hist, nav, os.Stdout)
	return repl.Run(ctx)
}
