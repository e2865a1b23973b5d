// Package main runs the development backend: page chrome, view fragments
// and the legacy /cgi-bin API over a seeded in-memory catalog.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/bookdenapp/bookden-shell/internal/config"
	"github.com/bookdenapp/bookden-shell/internal/di"
	"github.com/bookdenapp/bookden-shell/internal/logger"
)

func main() {
	var opts config.Options
	flag.StringVar(&opts.Environment, "env", "", "environment (development, production)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFormat, "log-format", "", "log format (pretty, json)")
	flag.StringVar(&opts.DevPort, "port", "", "port to listen on")
	flag.StringVar(&opts.DevSeed, "seed", "", "seed the catalog (true, false)")
	flag.StringVar(&opts.EnvFile, "env-file", "", "path to .env file")
	flag.Parse()

	injector := di.NewDevServerContainer(opts)
	if err := di.BootstrapDevServer(injector); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start devserver: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
