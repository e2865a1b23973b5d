package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/bookdenapp/bookden-shell/internal/config"
	"github.com/bookdenapp/bookden-shell/internal/devserver"
	"github.com/bookdenapp/bookden-shell/internal/logger"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 10 * time.Second

// ProvideStore provides the devserver's in-memory catalog, seeded when
// configured to be.
func ProvideStore(i do.Injector) (*devserver.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store := devserver.NewStore()
	if cfg.Dev.Seed {
		if err := devserver.Seed(store); err != nil {
			return nil, err
		}
		log.Info("seeded development catalog")
	}
	return store, nil
}

// DevServerHandle wraps the listening http.Server with Shutdownable.
type DevServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *DevServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideDevServer provides the development backend, already listening.
func ProvideDevServer(i do.Injector) (*DevServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	store := do.MustInvoke[*devserver.Store](i)

	srv := &http.Server{
		Addr:              ":" + cfg.Dev.Port,
		Handler:           devserver.New(store, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("devserver listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("devserver stopped", "error", err)
		}
	}()

	return &DevServerHandle{Server: srv}, nil
}
