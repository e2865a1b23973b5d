// Package main runs the headless shell against a backend origin and drives
// it from a line-oriented prompt on stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/bookdenapp/bookden-shell/internal/config"
	"github.com/bookdenapp/bookden-shell/internal/di"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/shell"
)

func main() {
	var opts config.Options
	flag.StringVar(&opts.Environment, "env", "", "environment (development, production)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFormat, "log-format", "", "log format (pretty, json)")
	flag.StringVar(&opts.BackendURL, "backend", "", "backend origin to load from")
	flag.StringVar(&opts.StartPath, "start", "", "path to restore on boot, e.g. /my-books")
	flag.StringVar(&opts.Timeout, "timeout", "", "request timeout, e.g. 30s")
	flag.StringVar(&opts.ProtectedViews, "protected", "", "comma-separated views requiring sign-in")
	flag.StringVar(&opts.EnvFile, "env-file", "", "path to .env file")
	flag.Parse()

	injector := di.NewShellContainer(opts)
	if err := di.BootstrapShell(injector); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start shell: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	app := do.MustInvoke[*shell.App](injector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go app.Run(ctx)
	app.Do(func() { app.Start(ctx) })

	driver := shell.NewDriver(app, os.Stdout)
	if err := driver.Repl(ctx, os.Stdin); err != nil {
		log.Error("repl error", "error", err)
	}

	cancel()
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
