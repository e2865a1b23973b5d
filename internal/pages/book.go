package pages

import (
	"context"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/bookdenapp/bookden-shell/internal/backend"
	"github.com/bookdenapp/bookden-shell/internal/binder"
	"github.com/bookdenapp/bookden-shell/internal/dom"
	"github.com/bookdenapp/bookden-shell/internal/loader"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/rating"
	"github.com/bookdenapp/bookden-shell/internal/render"
	"github.com/bookdenapp/bookden-shell/internal/route"
	"github.com/bookdenapp/bookden-shell/internal/router"
)

// Book fragment selectors.
const (
	selFollowButton = ".book-page .author-info button.follow-author"
	selFollowers    = ".book-page .author-info .num-followers"
	selCurrentPanel = ".book-page .current-review"
	selDeleteReview = ".book-page .current-review button.delete-review"
)

// BookPage renders a book's detail page from its data payload.
type BookPage struct {
	doc    *dom.Document
	binder *binder.Binder
	loader *loader.Loader
	client *backend.Client
	router *router.Router
	log    *logger.Logger

	bookID    string
	authorID  string
	following bool
}

// NewBookPage creates the controller; the router's OpenBook is wired to Open.
func NewBookPage(doc *dom.Document, b *binder.Binder, l *loader.Loader, client *backend.Client, rt *router.Router, log *logger.Logger) *BookPage {
	return &BookPage{doc: doc, binder: b, loader: l, client: client, router: rt, log: log}
}

// Bind registers the page's controls once; the selectors only match while a
// book fragment is in the main region.
func (p *BookPage) Bind(ctx context.Context) {
	p.binder.Bind(selFollowButton, binder.EventClick, func(*goquery.Selection) {
		p.toggleFollow(ctx)
	})
	p.binder.Bind(selDeleteReview, binder.EventClick, func(*goquery.Selection) {
		p.deleteReview(ctx)
	})
}

// Open fetches the book data, swaps the book fragment in and populates it.
// Same shape as the genre page: synchronous fragment load inside success,
// completion bookkeeping in all outcomes, stale navigations dropped.
func (p *BookPage) Open(ctx context.Context, bookID string, push bool) {
	gen := p.router.Generation()
	p.client.GetBookAbout(ctx, bookID, backend.Handlers[backend.BookAbout]{
		OnSuccess: func(b backend.BookAbout) {
			if p.router.Superseded(gen) {
				return
			}
			p.loadFragment(ctx)
			p.populate(bookID, b)
		},
		OnError: func(status int, body []byte) {
			if p.router.Superseded(gen) {
				return
			}
			p.doc.ReplaceMain(string(body))
		},
		OnComplete: func() {
			if p.router.Superseded(gen) {
				p.log.Debug("dropping stale book navigation", "book", bookID)
				return
			}
			p.router.FinishNavigation(route.Book(bookID), nil, push)
		},
	})
}

func (p *BookPage) loadFragment(ctx context.Context) {
	p.loader.Do(ctx, loader.Request{URL: "/html/book.html", Sync: true}, loader.Callbacks{
		OnSuccess: func(body []byte) { p.doc.ReplaceMain(string(body)) },
		OnError:   func(_ int, body []byte) { p.doc.ReplaceMain(string(body)) },
	})
}

func (p *BookPage) populate(bookID string, b backend.BookAbout) {
	p.bookID = bookID
	p.authorID = b.AuthorID
	p.following = b.AuthorFollowing

	page := p.doc.Find(".book-page")
	page.Find(".title").First().SetText(b.Title)
	page.Find(".cover img").SetAttr("src", b.Cover)
	page.Find(".synopsis").SetHtml(b.Synopsis)
	page.Find(".purchase-link a").SetAttr("href", b.PurchaseLink)
	page.Find(".release-date").SetText(b.ReleaseDate)
	page.Find(".isbn").SetText(b.ISBN)

	info := page.Find(".author-info")
	info.Find(".name").SetText(b.Author)
	info.Find(".about").SetHtml(b.AuthorAbout)
	info.Find(".num-followers").SetText(strconv.Itoa(b.AuthorFollowers))
	p.setFollowLabel()

	page.Find(".list-counts .num-want-read").SetText(strconv.Itoa(b.NumWantRead))
	page.Find(".list-counts .num-reading").SetText(strconv.Itoa(b.NumReading))
	page.Find(".list-counts .num-read").SetText(strconv.Itoa(b.NumRead))

	page.Find(".average-rating").SetText(floatText(b.AverageRating))
	page.Find(".num-ratings").SetText(strconv.Itoa(b.NumRatings))
	setStars(page.Find(".overall .rating-container i"), b.AverageRating)

	if err := render.List(render.Config{Scope: page, Item: "ol.genres li"}, len(b.Genres), func(i int, tag *goquery.Selection) {
		tag.Find("a").SetText(b.Genres[i])
	}); err != nil {
		p.log.Error("genre tag render failed", "book", bookID, "error", err)
	}

	p.renderBreakdown(page, b)
	p.renderReviews(page, b.Reviews)
	p.renderCurrentReview(b.CurrentUserReview)
}

// renderBreakdown paints the five percentage bars, five stars first.
func (p *BookPage) renderBreakdown(page *goquery.Selection, b backend.BookAbout) {
	counts := b.StarCounts()
	scope := page.Find(".rating-breakdown")
	err := render.List(render.Config{Scope: scope, Item: ".row"}, len(counts), func(i int, row *goquery.Selection) {
		percent := rating.FormatPercent(rating.Percentage(counts[i], b.NumRatings))
		row.Find(".label").SetText(strconv.Itoa(5-i) + " stars")
		row.Find(".percent").SetText(percent + "%")
		row.Find(".bar span").SetAttr("style", "width: "+percent+"%")
	})
	if err != nil {
		p.log.Error("rating breakdown render failed", "error", err)
	}
}

func (p *BookPage) renderReviews(page *goquery.Selection, reviews []backend.Review) {
	scope := page.Find(".reviews")
	err := render.List(render.Config{Scope: scope, Item: ".review"}, len(reviews), func(i int, clone *goquery.Selection) {
		p.populateReview(clone, reviews[i])
		clone.Find(".username").SetText(reviews[i].Username)
		clone.Find(".date-added").SetText(reviews[i].DateAdded)
	})
	if err != nil {
		p.log.Error("review render failed", "error", err)
	}
}

// populateReview fills the fields shared by listed reviews and the caller's
// own panel. Optional sub-ratings and text hide their containers when
// absent.
func (p *BookPage) populateReview(clone *goquery.Selection, r backend.Review) {
	render.SetIdentity(clone, r.ID)
	setStars(clone.Find(".rating-container i"), float64(r.OverallRating))
	render.SetField(clone, ".plot-rating", intText(r.PlotRating))
	render.SetField(clone, ".character-rating", intText(r.CharacterRating))
	render.SetField(clone, ".summary", r.Summary)
	render.SetHTMLField(clone, ".body", r.Body)
}

func (p *BookPage) renderCurrentReview(r *backend.Review) {
	panel := p.doc.Find(selCurrentPanel)
	if r == nil {
		dom.Hide(panel)
		return
	}
	dom.Show(panel)
	p.populateReview(panel, *r)
}

// toggleFollow flips the follow state optimistically; the response carries
// the author's new follower count.
func (p *BookPage) toggleFollow(ctx context.Context) {
	if p.authorID == "" {
		return
	}
	call := p.client.FollowAuthor
	if p.following {
		call = p.client.UnfollowAuthor
	}
	p.following = !p.following
	p.setFollowLabel()
	call(ctx, p.authorID, backend.Handlers[int]{
		OnSuccess: func(count int) {
			p.doc.Find(selFollowers).SetText(strconv.Itoa(count))
		},
		OnError: func(status int, _ []byte) {
			// Roll the flip back; the server did not record it.
			p.following = !p.following
			p.setFollowLabel()
			p.log.Warn("follow toggle failed", "author", p.authorID, "status", status)
		},
	})
}

func (p *BookPage) setFollowLabel() {
	label := "Follow"
	if p.following {
		label = "Unfollow"
	}
	p.doc.Find(selFollowButton).SetText(label)
}

func (p *BookPage) deleteReview(ctx context.Context) {
	panel := p.doc.Find(selCurrentPanel)
	reviewID := render.Identity(panel)
	if reviewID == "" {
		return
	}
	p.client.DeleteReview(ctx, reviewID, backend.Done{
		OnSuccess: func() { dom.Hide(panel) },
		OnError: func(status int, _ []byte) {
			p.log.Warn("delete review failed", "review", reviewID, "status", status)
		},
	})
}
