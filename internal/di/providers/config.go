// Package providers contains dependency injection providers for the Bookden
// commands.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookdenapp/bookden-shell/internal/config"
	"github.com/bookdenapp/bookden-shell/internal/logger"
)

// ProvideConfig provides the application configuration, resolved from flags,
// environment variables and the .env file.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	opts := do.MustInvoke[config.Options](i)
	return config.Load(opts)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
	})

	log.Info("starting",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"backend_url", cfg.Backend.BaseURL,
	)

	return log, nil
}
