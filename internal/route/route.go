// Package route models the shell's navigable locations and the browser
// history they are pushed onto.
package route

import (
	"strings"

	"github.com/bookdenapp/bookden-shell/internal/viewname"
)

// Kind discriminates the route union.
type Kind int

// Route kinds.
const (
	// KindNamed is a view selected purely by name, served from a fixed-path
	// fragment.
	KindNamed Kind = iota
	// KindGenre is a genre page keyed by genre name.
	KindGenre
	// KindBook is a book detail page keyed by opaque book id. Addressing is
	// id-based only; the legacy title-based scheme is not supported.
	KindBook
)

// Route is one navigable location.
type Route struct {
	Kind Kind
	// Name is the view name for KindNamed and the genre name for KindGenre.
	Name string
	// ID is the book id for KindBook.
	ID string
}

// Named builds a named-view route.
func Named(name string) Route {
	return Route{Kind: KindNamed, Name: name}
}

// Genre builds a genre-page route.
func Genre(name string) Route {
	return Route{Kind: KindGenre, Name: name}
}

// Book builds a book-page route.
func Book(id string) Route {
	return Route{Kind: KindBook, ID: id}
}

// URI returns the route's URL representation, the form pushed onto history.
func (r Route) URI() string {
	switch r.Kind {
	case KindGenre:
		return "/" + viewname.Segment("genre/"+r.Name)
	case KindBook:
		// IDs are opaque and case-sensitive, so no case transform applies.
		return "/book/" + r.ID
	default:
		if r.Name == viewname.Home {
			return "/"
		}
		return "/" + viewname.Segment(r.Name)
	}
}

// Parse derives a route from a URL path. Inverse of URI for named views and
// books; genre names come back with their case mangled (the slash keeps the
// next segment inside one title-case token), so genre lookups downstream are
// case-insensitive.
func Parse(path string) Route {
	if id, ok := strings.CutPrefix(path, "/book/"); ok && id != "" {
		return Book(id)
	}
	name := viewname.FromPath(path)
	if genre, ok := strings.CutPrefix(name, "Genre/"); ok && genre != "" {
		return Genre(genre)
	}
	return Named(name)
}

// Entry is one history slot: the URL that was pushed and the route it was
// derived from.
type Entry struct {
	Path  string
	Route Route
}

// History is an explicit browser-history stack. Entries are pushed on every
// successful transition and never deleted, only superseded when navigating
// after going back.
type History struct {
	entries []Entry
	pos     int
}

// NewHistory creates a history seeded with the initial entry.
func NewHistory(initial Entry) *History {
	return &History{entries: []Entry{initial}}
}

// Push records a new entry, discarding any forward entries.
func (h *History) Push(e Entry) {
	h.entries = append(h.entries[:h.pos+1], e)
	h.pos = len(h.entries) - 1
}

// Replace swaps the current entry without growing the stack.
func (h *History) Replace(e Entry) {
	h.entries[h.pos] = e
}

// Current returns the entry the shell is on.
func (h *History) Current() Entry {
	return h.entries[h.pos]
}

// Back moves one entry back, reporting false at the start of the stack.
func (h *History) Back() (Entry, bool) {
	if h.pos == 0 {
		return Entry{}, false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward moves one entry forward, reporting false at the end of the stack.
func (h *History) Forward() (Entry, bool) {
	if h.pos == len(h.entries)-1 {
		return Entry{}, false
	}
	h.pos++
	return h.entries[h.pos], true
}

// Len reports the number of entries on the stack.
func (h *History) Len() int {
	return len(h.entries)
}
