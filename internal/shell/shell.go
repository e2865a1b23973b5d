// Package shell assembles the headless single-view shell: one document, one
// UI loop, the router, the auth gate and the page controllers, wired together
// the way the browser page wires them.
package shell

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bookdenapp/bookden-shell/internal/authgate"
	"github.com/bookdenapp/bookden-shell/internal/backend"
	"github.com/bookdenapp/bookden-shell/internal/binder"
	"github.com/bookdenapp/bookden-shell/internal/config"
	"github.com/bookdenapp/bookden-shell/internal/dom"
	"github.com/bookdenapp/bookden-shell/internal/loader"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/pages"
	"github.com/bookdenapp/bookden-shell/internal/render"
	"github.com/bookdenapp/bookden-shell/internal/route"
	"github.com/bookdenapp/bookden-shell/internal/router"
	"github.com/bookdenapp/bookden-shell/internal/session"
	"github.com/bookdenapp/bookden-shell/internal/uiloop"
)

// App holds one shell instance: a parsed chrome document and everything
// operating on it. All mutation happens on the UI loop.
type App struct {
	Doc      *dom.Document
	Loop     *uiloop.Loop
	Binder   *binder.Binder
	Sessions *session.State
	Loader   *loader.Loader
	Client   *backend.Client
	Router   *router.Router
	Gate     *authgate.Gate
	Lists    *pages.ReadingLists
	Genre    *pages.GenrePage
	Book     *pages.BookPage

	cfg *config.Config
	log *logger.Logger
}

// FetchChrome downloads the page chrome from the backend origin. The shell
// boots from the same document a browser would receive.
func FetchChrome(ctx context.Context, cfg *config.Config) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Backend.BaseURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("build chrome request: %w", err)
	}
	client := &http.Client{Timeout: cfg.Backend.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch chrome from %s: %w", cfg.Backend.BaseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch chrome from %s: status %d", cfg.Backend.BaseURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chrome body: %w", err)
	}
	return string(data), nil
}

// New wires an App over the given chrome HTML. ctx is captured by the event
// handlers; cancel it to abandon in-flight requests on shutdown.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, chrome string) (*App, error) {
	doc, err := dom.Parse(chrome)
	if err != nil {
		return nil, fmt.Errorf("parse chrome: %w", err)
	}

	loop := uiloop.New()
	l, err := loader.New(loader.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		RPS:     cfg.Backend.RPS,
		Burst:   cfg.Backend.Burst,
	}, loop, log)
	if err != nil {
		return nil, err
	}

	sessions := session.New()
	client := backend.New(l, sessions, log)
	b := binder.New()
	rt := router.New(doc, l, log, cfg.App.StartPath)
	gate := authgate.New(doc, b, client, loop, sessions, cfg.Auth.ProtectedViews, log)
	lists := pages.NewReadingLists(doc, b, client, log)
	genrePage := pages.NewGenrePage(doc, l, client, rt, log)
	bookPage := pages.NewBookPage(doc, b, l, client, rt, log)

	a := &App{
		Doc:      doc,
		Loop:     loop,
		Binder:   b,
		Sessions: sessions,
		Loader:   l,
		Client:   client,
		Router:   rt,
		Gate:     gate,
		Lists:    lists,
		Genre:    genrePage,
		Book:     bookPage,
		cfg:      cfg,
		log:      log,
	}

	rt.CheckAccess = gate.Check
	gate.Refresh = func() { rt.Reload(ctx) }
	rt.OpenGenre = func(name string, push bool) { genrePage.Open(ctx, name, push) }
	rt.OpenBook = func(id string, push bool) { bookPage.Open(ctx, id, push) }
	rt.Handle("My Books", func(string) { lists.Enter(ctx) })

	gate.BindControls(ctx)
	lists.Bind(ctx)
	bookPage.Bind(ctx)
	a.bindNavigation(ctx)

	return a, nil
}

// bindNavigation registers the document-wide click handlers: the main nav
// group plus the genre and book buttons any fragment may carry. Selectors
// are re-evaluated per trigger, so one registration covers re-rendered
// content.
func (a *App) bindNavigation(ctx context.Context) {
	a.Binder.Bind("nav.bottom ul li a", binder.EventClick, func(sel *goquery.Selection) {
		// The router reads the clicked anchor's text itself.
		a.Router.Navigate(ctx, route.Named(""), sel, true)
	})
	a.Binder.Bind("a.genre-button", binder.EventClick, func(sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if name != "" {
			a.Router.Navigate(ctx, route.Genre(name), nil, true)
		}
	})
	a.Binder.Bind(".book-summary", binder.EventClick, func(sel *goquery.Selection) {
		if id := render.Identity(sel); id != "" {
			a.Router.Navigate(ctx, route.Book(id), nil, true)
		}
	})
}

// Start restores the configured start path, kicking off the first fragment
// load. Call after the loop is running (or drain it manually in tests).
func (a *App) Start(ctx context.Context) {
	a.Router.RestoreFromPath(ctx, a.cfg.App.StartPath)
}

// Run consumes UI tasks until ctx is canceled. It is the loop goroutine;
// drivers feed work in through Do.
func (a *App) Run(ctx context.Context) {
	a.Loop.Run(ctx)
}

// Do runs fn on the UI loop and waits for it. This is the only safe way for
// another goroutine to touch the document.
func (a *App) Do(fn func()) {
	a.Loop.Do(fn)
}
