// Package router owns current-view state: it decides between the named-view
// family (static fragment swap) and the parameterized family (genre/book
// pages), synchronizes the history stack, keeps the active navigation link
// exclusive, and dispatches per-view initializers once a load completes.
package router

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/bookdenapp/bookden-shell/internal/dom"
	"github.com/bookdenapp/bookden-shell/internal/loader"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/route"
	"github.com/bookdenapp/bookden-shell/internal/viewname"
)

// navSelector matches the anchors forming the main navigation group.
const navSelector = "nav.bottom ul li a"

// Initializer runs after a view's fragment has landed, e.g. the reading-list
// controller behind "My Books".
type Initializer func(view string)

// Router drives navigation.
type Router struct {
	doc    *dom.Document
	loader *loader.Loader
	log    *logger.Logger

	history *route.History
	current route.Route
	// gen tags the navigation in flight; a completion carrying a stale tag
	// is dropped instead of writing into a superseded view.
	gen uuid.UUID

	inits map[string]Initializer
	// fragmentHooks run after every completed fragment swap, rebinding the
	// genre/book buttons the new content carries.
	fragmentHooks []func()

	// CheckAccess gates protected views. Wired to the auth gate; nil allows
	// everything.
	CheckAccess func(view string) bool
	// OpenGenre and OpenBook hand parameterized navigation to the page
	// controllers, which fetch JSON and populate the shared templates.
	OpenGenre func(name string, push bool)
	OpenBook  func(id string, push bool)
}

// New creates a router over the given document and loader. The history is
// seeded from startPath, which is also what RestoreFromPath re-derives.
func New(doc *dom.Document, l *loader.Loader, log *logger.Logger, startPath string) *Router {
	r := route.Parse(startPath)
	return &Router{
		doc:     doc,
		loader:  l,
		log:     log,
		history: route.NewHistory(route.Entry{Path: startPath, Route: r}),
		current: r,
		inits:   make(map[string]Initializer),
	}
}

// Handle registers the initializer for an exact view name.
func (rt *Router) Handle(view string, init Initializer) {
	rt.inits[view] = init
}

// OnFragment registers a hook to run after every completed fragment swap.
func (rt *Router) OnFragment(hook func()) {
	rt.fragmentHooks = append(rt.fragmentHooks, hook)
}

// Current returns the route the shell is on.
func (rt *Router) Current() route.Route {
	return rt.current
}

// History exposes the history stack for back/forward drivers.
func (rt *Router) History() *route.History {
	return rt.history
}

// Navigate moves to r. clicked, when non-nil, is the navigation anchor the
// user clicked and becomes the active link; otherwise the link is matched by
// text. push controls whether a history entry is recorded; restoring from a
// URL re-derives content without pushing a duplicate.
func (rt *Router) Navigate(ctx context.Context, r route.Route, clicked *goquery.Selection, push bool) {
	switch r.Kind {
	case route.KindGenre:
		if rt.OpenGenre != nil {
			rt.beginNavigation(r)
			rt.OpenGenre(r.Name, push)
		}
	case route.KindBook:
		if rt.OpenBook != nil {
			rt.beginNavigation(r)
			rt.OpenBook(r.ID, push)
		}
	default:
		rt.navigateNamed(ctx, r, clicked, push)
	}
}

// RestoreFromPath derives the route from a URL path and renders it without
// recording a new history entry. Runs once at startup; it is the only way a
// full reload is handled.
func (rt *Router) RestoreFromPath(ctx context.Context, path string) {
	r := route.Parse(path)
	rt.history.Replace(route.Entry{Path: path, Route: r})
	rt.Navigate(ctx, r, nil, false)
}

// Reload re-runs the current route's fetch without touching history. Used
// after sign-in/out so personalized content appears or disappears without a
// manual refresh.
func (rt *Router) Reload(ctx context.Context) {
	rt.Navigate(ctx, rt.current, nil, false)
}

// Back re-derives the previous history entry, if any.
func (rt *Router) Back(ctx context.Context) bool {
	e, ok := rt.history.Back()
	if !ok {
		return false
	}
	rt.Navigate(ctx, e.Route, nil, false)
	return true
}

// Forward re-derives the next history entry, if any.
func (rt *Router) Forward(ctx context.Context) bool {
	e, ok := rt.history.Forward()
	if !ok {
		return false
	}
	rt.Navigate(ctx, e.Route, nil, false)
	return true
}

func (rt *Router) navigateNamed(ctx context.Context, r route.Route, clicked *goquery.Selection, push bool) {
	name := r.Name
	if clicked != nil && clicked.Length() > 0 {
		// Using the clicked element's own text avoids scanning every link
		// for a match. Anchor text may carry markup whitespace.
		name = strings.TrimSpace(clicked.Text())
		r = route.Named(name)
	}
	if name == "" {
		name = viewname.Home
		r = route.Named(name)
	}

	gen := rt.beginNavigation(r)
	rt.loader.Do(ctx, loader.Request{URL: viewname.FragmentPath(name)}, loader.Callbacks{
		OnSuccess: func(body []byte) {
			if rt.stale(gen) {
				return
			}
			rt.doc.ReplaceMain(string(body))
		},
		OnError: func(status int, body []byte) {
			if rt.stale(gen) {
				return
			}
			// The server's error body is a display-ready page.
			rt.doc.ReplaceMain(string(body))
		},
		OnComplete: func() {
			if rt.stale(gen) {
				rt.log.Debug("dropping stale navigation", "view", name)
				return
			}
			// Bookkeeping happens here so it runs even when the fetch
			// failed; the nav links updating regardless reads as
			// responsiveness.
			rt.FinishNavigation(r, clicked, push)
		},
	})
}

// beginNavigation marks r as the navigation in flight and returns its tag.
func (rt *Router) beginNavigation(r route.Route) uuid.UUID {
	rt.gen = uuid.New()
	rt.current = r
	return rt.gen
}

// stale reports whether gen has been superseded by a newer navigation.
func (rt *Router) stale(gen uuid.UUID) bool {
	return rt.gen != gen
}

// Generation returns the tag of the navigation in flight. Page controllers
// snapshot it before their fetches and drop superseded completions.
func (rt *Router) Generation() uuid.UUID {
	return rt.gen
}

// Superseded reports whether gen is no longer the navigation in flight.
func (rt *Router) Superseded(gen uuid.UUID) bool {
	return rt.stale(gen)
}

// FinishNavigation runs the completion bookkeeping for r: active link,
// history entry, fragment hooks, then the view initializer behind the access
// gate. Page controllers call it from their own load completions.
func (rt *Router) FinishNavigation(r route.Route, clicked *goquery.Selection, push bool) {
	rt.current = r
	if r.Kind == route.KindNamed {
		rt.updateActiveLink(clicked, r.Name)
	} else {
		rt.updateActiveLink(nil, "")
	}
	if push {
		rt.history.Push(route.Entry{Path: r.URI(), Route: r})
	}
	for _, hook := range rt.fragmentHooks {
		hook()
	}
	if r.Kind == route.KindNamed {
		rt.enter(r.Name)
	}
}

// enter dispatches the per-view initializer, gated on access.
func (rt *Router) enter(view string) {
	if rt.CheckAccess != nil && !rt.CheckAccess(view) {
		rt.log.Debug("view blocked pending sign-in", "view", view)
		return
	}
	if init, ok := rt.inits[view]; ok {
		init(view)
	}
}

// updateActiveLink keeps exactly one navigation anchor active: the clicked
// element when navigation came from a click, else the anchor whose text
// matches the view name. A parameterized view leaves no anchor active.
func (rt *Router) updateActiveLink(clicked *goquery.Selection, name string) {
	rt.doc.Find(navSelector + "." + dom.ActiveClass).RemoveClass(dom.ActiveClass)
	if clicked != nil && clicked.Length() > 0 {
		clicked.AddClass(dom.ActiveClass)
		return
	}
	if name == "" {
		return
	}
	rt.doc.Find(navSelector).Each(func(_ int, a *goquery.Selection) {
		if strings.TrimSpace(a.Text()) == name {
			a.AddClass(dom.ActiveClass)
		}
	})
}
