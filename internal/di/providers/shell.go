package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/bookdenapp/bookden-shell/internal/config"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/shell"
)

// ProvideShellApp provides the assembled shell: chrome fetched from the
// backend, document parsed, router, gate and page controllers wired.
func ProvideShellApp(i do.Injector) (*shell.App, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()
	chrome, err := shell.FetchChrome(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("boot shell: %w", err)
	}

	app, err := shell.New(ctx, cfg, log, chrome)
	if err != nil {
		return nil, fmt.Errorf("boot shell: %w", err)
	}
	return app, nil
}
