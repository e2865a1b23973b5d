package pages

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/bookdenapp/bookden-shell/internal/backend"
	"github.com/bookdenapp/bookden-shell/internal/dom"
	"github.com/bookdenapp/bookden-shell/internal/loader"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/render"
	"github.com/bookdenapp/bookden-shell/internal/route"
	"github.com/bookdenapp/bookden-shell/internal/router"
)

// GenrePage renders a genre's about page from its data payload.
type GenrePage struct {
	doc    *dom.Document
	loader *loader.Loader
	client *backend.Client
	router *router.Router
	log    *logger.Logger
}

// NewGenrePage creates the controller; the router's OpenGenre is wired to
// Open.
func NewGenrePage(doc *dom.Document, l *loader.Loader, client *backend.Client, rt *router.Router, log *logger.Logger) *GenrePage {
	return &GenrePage{doc: doc, loader: l, client: client, router: rt, log: log}
}

// Open fetches the genre data, swaps the genre fragment in and populates it.
// The fragment load inside the success path is synchronous: the templates
// must exist before population. Completion bookkeeping runs regardless of
// outcome, unless a newer navigation superseded this one.
func (p *GenrePage) Open(ctx context.Context, name string, push bool) {
	gen := p.router.Generation()
	p.client.GetGenreAbout(ctx, name, backend.Handlers[backend.GenreAbout]{
		OnSuccess: func(g backend.GenreAbout) {
			if p.router.Superseded(gen) {
				return
			}
			p.loadFragment(ctx)
			p.populate(g)
		},
		OnError: func(status int, body []byte) {
			if p.router.Superseded(gen) {
				return
			}
			// The server's error body is a display-ready page.
			p.doc.ReplaceMain(string(body))
		},
		OnComplete: func() {
			if p.router.Superseded(gen) {
				p.log.Debug("dropping stale genre navigation", "genre", name)
				return
			}
			p.router.FinishNavigation(route.Genre(name), nil, push)
		},
	})
}

func (p *GenrePage) loadFragment(ctx context.Context) {
	p.loader.Do(ctx, loader.Request{URL: "/html/genre.html", Sync: true}, loader.Callbacks{
		OnSuccess: func(body []byte) { p.doc.ReplaceMain(string(body)) },
		OnError:   func(_ int, body []byte) { p.doc.ReplaceMain(string(body)) },
	})
}

func (p *GenrePage) populate(g backend.GenreAbout) {
	p.doc.Find(".genre-name").SetText(g.Name)
	p.doc.Find(".about").SetHtml(g.About)

	scope := p.doc.Find(".genre-book-items")
	err := render.List(render.Config{Scope: scope, Item: ".book-summary"}, len(g.Books), func(i int, clone *goquery.Selection) {
		render.SetIdentity(clone, g.Books[i].ID)
		clone.Find(".title").SetText(g.Books[i].Title)
		clone.Find(".author").SetText(g.Books[i].Author)
		clone.Find("img").SetAttr("src", g.Books[i].Cover)
	})
	if err != nil {
		p.log.Error("genre book render failed", "genre", g.Name, "error", err)
	}
}
