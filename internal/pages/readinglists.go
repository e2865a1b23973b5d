package pages

import (
	"context"
	"slices"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/bookdenapp/bookden-shell/internal/backend"
	"github.com/bookdenapp/bookden-shell/internal/binder"
	"github.com/bookdenapp/bookden-shell/internal/dom"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/render"
)

// permanentLists cannot be deleted; the delete control hides while one is
// selected. The server rejects deletion regardless.
var permanentLists = []string{"Currently Reading", "Want to Read", "Have Read"}

// My Books fragment selectors.
const (
	selNavScope     = ".navigation"
	selNavLink      = ".navigation ul li a"
	selEntries      = ".container .entries"
	selEditLists    = ".container .entries .edit-lists"
	selCreateButton = ".container .entries .edit-lists button.create-list"
	selDeleteButton = ".container .entries .edit-lists button.delete-list"
	selAddContainer = ".container .entries .edit-lists .add-container"
	selCreateForm   = ".container .entries .edit-lists form"
	selCreateInput  = ".container .entries .edit-lists form input[name=list-name]"
	selBookDelete   = ".container .entries .book button.delete"
	selBookMove     = ".container .entries .book button.read"
	selListMeta     = ".container .entries p.meta"
)

// ReadingLists drives the My Books view: the list navigation column, the
// book cards of the selected list, and the list/entry mutations.
type ReadingLists struct {
	doc    *dom.Document
	binder *binder.Binder
	client *backend.Client
	log    *logger.Logger

	listID   string
	listName string
	// moveTargetID is where the forwarding button sends a book, nil when the
	// selected list has no forwarding action.
	moveTargetID *string
}

// NewReadingLists creates the controller. Bind must run once before Enter.
func NewReadingLists(doc *dom.Document, b *binder.Binder, client *backend.Client, log *logger.Logger) *ReadingLists {
	return &ReadingLists{doc: doc, binder: b, client: client, log: log}
}

// Bind registers the view's handlers. Selectors re-evaluate at trigger time,
// so one registration survives every re-render.
func (c *ReadingLists) Bind(ctx context.Context) {
	c.binder.Bind(selNavLink, binder.EventClick, func(a *goquery.Selection) {
		c.selectList(ctx, render.Identity(a), a.Text())
	})
	c.binder.Bind(selCreateButton, binder.EventClick, func(btn *goquery.Selection) {
		dom.Hide(btn)
		dom.Show(c.doc.Find(selAddContainer))
	})
	c.binder.Bind(selCreateForm, binder.EventSubmit, func(*goquery.Selection) {
		c.createList(ctx)
	})
	c.binder.Bind(selDeleteButton, binder.EventClick, func(*goquery.Selection) {
		c.deleteList(ctx)
	})
	c.binder.Bind(selBookDelete, binder.EventClick, func(btn *goquery.Selection) {
		c.deleteEntry(ctx, btn)
	})
	c.binder.Bind(selBookMove, binder.EventClick, func(btn *goquery.Selection) {
		c.moveEntry(ctx, btn)
	})
}

// Enter loads the caller's lists into the navigation column and selects the
// first one. Runs as the My Books view initializer and again after list
// mutations.
func (c *ReadingLists) Enter(ctx context.Context) {
	c.client.GetLists(ctx, backend.Handlers[[]backend.ListInfo]{
		OnSuccess: func(lists []backend.ListInfo) {
			nav := c.doc.Find(selNavScope)
			err := render.List(render.Config{Scope: nav, Item: "li"}, len(lists), func(i int, clone *goquery.Selection) {
				render.SetIdentity(clone, lists[i].ID)
				name := lists[i].Name
				render.SetField(clone, "a", &name)
			})
			if err != nil {
				c.log.Error("list navigation render failed", "error", err)
				return
			}
			if len(lists) > 0 {
				c.selectList(ctx, lists[0].ID, lists[0].Name)
			}
		},
		OnError: func(status int, _ []byte) {
			c.log.Warn("reading lists load failed", "status", status)
		},
	})
}

// selectList marks the list active and loads its entries.
func (c *ReadingLists) selectList(ctx context.Context, listID, name string) {
	if listID == "" {
		return
	}
	c.listID = listID
	c.listName = name

	links := c.doc.Find(selNavLink)
	links.RemoveClass(dom.ActiveClass)
	c.doc.Find(selNavScope + ` li[` + render.IdentityAttr + `="` + listID + `"] a`).AddClass(dom.ActiveClass)

	c.client.GetListEntries(ctx, listID, backend.Handlers[backend.ListEntries]{
		OnSuccess: func(e backend.ListEntries) { c.renderEntries(e) },
		OnError: func(status int, _ []byte) {
			c.log.Warn("list entries load failed", "list", listID, "status", status)
		},
	})
}

func (c *ReadingLists) renderEntries(e backend.ListEntries) {
	c.moveTargetID = e.MoveTargetID

	if slices.Contains(permanentLists, c.listName) {
		dom.Hide(c.doc.Find(selDeleteButton))
	} else {
		dom.Show(c.doc.Find(selDeleteButton))
	}

	render.SetField(c.doc.Find(selEntries), "p.meta", e.Meta)

	entries := c.doc.Find(selEntries)
	err := render.List(render.Config{
		Scope:  entries,
		Item:   ".book",
		Anchor: entries.Find(".edit-lists"),
	}, len(e.Books), func(i int, clone *goquery.Selection) {
		c.populateCard(clone, e.Books[i], e.Button)
	})
	if err != nil {
		c.log.Error("book card render failed", "error", err)
	}
}

func (c *ReadingLists) populateCard(clone *goquery.Selection, b backend.BookEntry, button *string) {
	render.SetIdentity(clone, b.ID)
	clone.Find(".title").SetText(b.Title)
	clone.Find(".author").SetText(b.Author)
	clone.Find(".date-added").SetText(b.DateAdded)
	clone.Find(".synopsis").SetHtml(b.Synopsis)
	clone.Find(".about-review .average-review").SetText(floatText(b.AverageRating))
	clone.Find(".about-review span.num-review").SetText(strconv.Itoa(b.NumReviews))
	clone.Find(".cover img").SetAttr("src", b.Cover)
	setStars(clone.Find(".rating-container i"), b.AverageRating)

	if err := render.List(render.Config{Scope: clone, Item: "ol li"}, len(b.Genres), func(i int, tag *goquery.Selection) {
		tag.Find("a").SetText(b.Genres[i])
	}); err != nil {
		c.log.Error("genre tag render failed", "error", err)
	}

	action := clone.Find(".actions .read")
	if button == nil {
		dom.Hide(action)
		return
	}
	dom.Show(action)
	action.Find(".reading-list-manipulation").SetText(*button)
}

func (c *ReadingLists) createList(ctx context.Context) {
	input := c.doc.Find(selCreateInput)
	name := input.AttrOr("value", "")
	if name == "" {
		return
	}
	c.client.CreateList(ctx, name, backend.Done{
		OnSuccess: func() {
			// Clear the field so a stale name is not resubmitted.
			input.SetAttr("value", "")
			dom.Hide(c.doc.Find(selAddContainer))
			dom.Show(c.doc.Find(selCreateButton))
			c.Enter(ctx)
		},
		OnError: func(status int, _ []byte) {
			c.log.Warn("create list failed", "status", status)
		},
	})
}

func (c *ReadingLists) deleteList(ctx context.Context) {
	if c.listID == "" || slices.Contains(permanentLists, c.listName) {
		return
	}
	c.client.RemoveList(ctx, c.listID, backend.Done{
		OnSuccess: func() { c.Enter(ctx) },
		OnError: func(status int, _ []byte) {
			c.log.Warn("delete list failed", "list", c.listID, "status", status)
		},
	})
}

// deleteEntry removes the clicked card's book from the selected list and
// drops the card without re-fetching the list.
func (c *ReadingLists) deleteEntry(ctx context.Context, btn *goquery.Selection) {
	card := btn.Closest("div.book")
	bookID := render.Identity(card)
	if bookID == "" {
		return
	}
	c.client.RemoveListEntry(ctx, c.listID, bookID, backend.Done{
		OnSuccess: func() { card.Remove() },
		OnError: func(status int, _ []byte) {
			c.log.Warn("remove entry failed", "book", bookID, "status", status)
		},
	})
}

// moveEntry forwards the clicked card's book to the list the server named
// and drops the card, mirroring deleteEntry.
func (c *ReadingLists) moveEntry(ctx context.Context, btn *goquery.Selection) {
	if c.moveTargetID == nil {
		return
	}
	card := btn.Closest("div.book")
	bookID := render.Identity(card)
	if bookID == "" {
		return
	}
	c.client.MoveListEntry(ctx, c.listID, *c.moveTargetID, bookID, backend.Done{
		OnSuccess: func() { card.Remove() },
		OnError: func(status int, _ []byte) {
			c.log.Warn("move entry failed", "book", bookID, "status", status)
		},
	})
}
