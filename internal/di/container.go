// Package di provides dependency injection configuration for the Bookden
// shell and its development backend.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bookdenapp/bookden-shell/internal/config"
	"github.com/bookdenapp/bookden-shell/internal/di/providers"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/shell"
)

// NewShellContainer configures the container for the shell command.
// Flag values arrive through opts; providers resolve the rest.
func NewShellContainer(opts config.Options) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, opts)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideShellApp)

	return injector
}

// NewDevServerContainer configures the container for the devserver command.
func NewDevServerContainer(opts config.Options) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, opts)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideDevServer)

	return injector
}

// BootstrapShell triggers lazy initialization of the shell's services.
func BootstrapShell(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*shell.App](injector); err != nil {
		return err
	}
	return nil
}

// BootstrapDevServer initializes the devserver stack, including the
// listening socket.
func BootstrapDevServer(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.DevServerHandle](injector); err != nil {
		return err
	}
	return nil
}
