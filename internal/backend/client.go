// Package backend is the typed client for the book service's JSON surface.
// Every call is continuation-style over the loader so page controllers keep
// the same success/error/complete discipline for typed data as for raw
// fragments.
package backend

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/bookdenapp/bookden-shell/internal/loader"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/session"
)

// Handlers receives a typed call's outcome. Any field may be nil. A 2xx body
// that does not decode is delivered to OnError with status 0, like a
// transport failure.
type Handlers[T any] struct {
	OnSuccess  func(T)
	OnError    func(status int, body []byte)
	OnComplete func()
}

// Done is the handler set for mutations whose response body carries nothing.
type Done struct {
	OnSuccess  func()
	OnError    func(status int, body []byte)
	OnComplete func()
}

// Client issues typed requests, attaching the current session token where
// the endpoint wants one.
type Client struct {
	loader   *loader.Loader
	sessions *session.State
	log      *logger.Logger
}

// New creates a client over the shared loader and session state.
func New(l *loader.Loader, sessions *session.State, log *logger.Logger) *Client {
	return &Client{loader: l, sessions: sessions, log: log}
}

// ListInfo is one reading list in the lists navigation.
type ListInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookEntry is one book card in a reading list.
type BookEntry struct {
	ID            string   `json:"id"`
	Cover         string   `json:"cover"`
	Title         string   `json:"title"`
	Synopsis      string   `json:"synopsis"`
	Author        string   `json:"author"`
	AuthorID      string   `json:"author_id"`
	DateAdded     string   `json:"date_added"`
	Genres        []string `json:"genres"`
	AverageRating float64  `json:"average_rating"`
	NumReviews    int      `json:"num_reviews"`
}

// ListEntries is the get_list_entries payload. Button and MoveTargetID are
// nil for lists without a forwarding action; Meta carries the empty-list
// message when there are no books.
type ListEntries struct {
	Button       *string     `json:"button"`
	MoveTargetID *string     `json:"move_target_id"`
	Books        []BookEntry `json:"books"`
	Meta         *string     `json:"meta"`
}

// BookSummary is the compact card used on genre pages.
type BookSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Cover  string `json:"cover"`
}

// GenreAbout is the genres/about_data payload. About is display-ready HTML.
type GenreAbout struct {
	Name  string        `json:"name"`
	About string        `json:"about"`
	Books []BookSummary `json:"books"`
}

// Review is a single review. Plot and character sub-ratings, the summary and
// the body are optional; absent values hide their containers.
type Review struct {
	ID              string  `json:"id"`
	OverallRating   int     `json:"overall_rating"`
	PlotRating      *int    `json:"plot_rating"`
	CharacterRating *int    `json:"character_rating"`
	Summary         *string `json:"summary"`
	Body            *string `json:"rating_body"`
	DateAdded       string  `json:"date_added"`
	Username        string  `json:"username"`
}

// BookAbout is the books/about_data payload. Synopsis and AuthorAbout are
// display-ready HTML. Reviews excludes the caller's own review, which
// arrives separately in CurrentUserReview. ListID is the id of the caller's
// have-read list when the book sits in it.
type BookAbout struct {
	Title           string   `json:"title"`
	Cover           string   `json:"cover_image"`
	Synopsis        string   `json:"synopsis"`
	PurchaseLink    string   `json:"purchase_link"`
	ReleaseDate     string   `json:"release_date"`
	ISBN            string   `json:"isbn"`
	Author          string   `json:"author"`
	AuthorID        string   `json:"author_id"`
	AuthorAbout     string   `json:"author_about"`
	AuthorFollowers int      `json:"author_number_followers"`
	NumWantRead     int      `json:"num_want_read"`
	NumReading      int      `json:"num_reading"`
	NumRead         int      `json:"num_read"`
	Genres          []string `json:"genres"`

	AverageRating float64 `json:"average_rating"`
	NumRatings    int     `json:"num_ratings"`
	Num5Stars     int     `json:"num_5_stars"`
	Num4Stars     int     `json:"num_4_stars"`
	Num3Stars     int     `json:"num_3_stars"`
	Num2Stars     int     `json:"num_2_stars"`
	Num1Star      int     `json:"num_1_star"`

	CurrentUserReview *Review  `json:"current_user_review"`
	Reviews           []Review `json:"reviews"`
	AuthorFollowing   bool     `json:"author_following"`
	ListID            *string  `json:"list_id"`
}

// StarCounts returns the per-rating histogram, five stars first.
func (b *BookAbout) StarCounts() [5]int {
	return [5]int{b.Num5Stars, b.Num4Stars, b.Num3Stars, b.Num2Stars, b.Num1Star}
}

// AccountResult is the sign_in and sign_up payload. A nil SessionID means
// the attempt failed and Message says why.
type AccountResult struct {
	SessionID *string `json:"session_id"`
	Message   string  `json:"message"`
}

// GetLists fetches the caller's reading lists.
func (c *Client) GetLists(ctx context.Context, h Handlers[[]ListInfo]) {
	u := loader.AddParam("/cgi-bin/my_books/get_lists", "session_id", c.sessions.Token())
	call(c, ctx, loader.Request{URL: u}, h)
}

// GetListEntries fetches the book cards of one list.
func (c *Client) GetListEntries(ctx context.Context, listID string, h Handlers[ListEntries]) {
	u := loader.AddParam("/cgi-bin/my_books/get_list_entries", "session_id", c.sessions.Token())
	u = loader.AddParam(u, "list_id", listID)
	call(c, ctx, loader.Request{URL: u}, h)
}

// CreateList creates a named reading list.
func (c *Client) CreateList(ctx context.Context, name string, d Done) {
	c.post(ctx, "/cgi-bin/my_books/create_list", map[string]string{
		"session_id": c.sessions.Token(),
		"list_name":  name,
	}, d)
}

// RemoveList deletes a list and its entries. The permanent lists reject
// this server-side; the control is hidden for them anyway.
func (c *Client) RemoveList(ctx context.Context, listID string, d Done) {
	c.post(ctx, "/cgi-bin/my_books/remove_list", map[string]string{
		"session_id": c.sessions.Token(),
		"list_id":    listID,
	}, d)
}

// RemoveListEntry takes a book off a list.
func (c *Client) RemoveListEntry(ctx context.Context, listID, bookID string, d Done) {
	c.post(ctx, "/cgi-bin/my_books/remove_list_entry", map[string]string{
		"session_id": c.sessions.Token(),
		"list_id":    listID,
		"book_id":    bookID,
	}, d)
}

// AddListEntry puts a book on a list.
func (c *Client) AddListEntry(ctx context.Context, listID, bookID string, d Done) {
	c.post(ctx, "/cgi-bin/my_books/add_list_entry", map[string]string{
		"session_id": c.sessions.Token(),
		"list_id":    listID,
		"book_id":    bookID,
	}, d)
}

// MoveListEntry moves a book from one list to another in a single call.
func (c *Client) MoveListEntry(ctx context.Context, listID, targetListID, bookID string, d Done) {
	c.post(ctx, "/cgi-bin/my_books/move_list_entry", map[string]string{
		"session_id":     c.sessions.Token(),
		"list_id":        listID,
		"target_list_id": targetListID,
		"book_id":        bookID,
	}, d)
}

// GetGenreAbout fetches a genre's about page data by display name.
func (c *Client) GetGenreAbout(ctx context.Context, name string, h Handlers[GenreAbout]) {
	u := loader.AddParam("/cgi-bin/genres/about_data", "genre_name", name)
	call(c, ctx, loader.Request{URL: u}, h)
}

// GetBookAbout fetches a book's full detail payload. The session token
// personalizes the response and may be empty.
func (c *Client) GetBookAbout(ctx context.Context, bookID string, h Handlers[BookAbout]) {
	u := loader.AddParam("/cgi-bin/books/about_data", "book_id", bookID)
	u = loader.AddParam(u, "session_id", c.sessions.Token())
	call(c, ctx, loader.Request{URL: u}, h)
}

// DeleteReview removes the caller's own review.
func (c *Client) DeleteReview(ctx context.Context, reviewID string, d Done) {
	c.post(ctx, "/cgi-bin/books/delete_review", map[string]string{
		"session_id": c.sessions.Token(),
		"review_id":  reviewID,
	}, d)
}

// FollowAuthor follows an author; the response is the author's new follower
// count.
func (c *Client) FollowAuthor(ctx context.Context, authorID string, h Handlers[int]) {
	c.followCall(ctx, "/cgi-bin/authors/follow_author", authorID, h)
}

// UnfollowAuthor unfollows an author; the response is the author's new
// follower count.
func (c *Client) UnfollowAuthor(ctx context.Context, authorID string, h Handlers[int]) {
	c.followCall(ctx, "/cgi-bin/authors/unfollow_author", authorID, h)
}

// followCall handles the two author endpoints, whose response is the bare
// decimal follower count rather than JSON.
func (c *Client) followCall(ctx context.Context, url, authorID string, h Handlers[int]) {
	body := map[string]string{
		"session_id": c.sessions.Token(),
		"author_id":  authorID,
	}
	c.loader.Do(ctx, loader.Request{Method: http.MethodPost, URL: url, Body: body}, loader.Callbacks{
		OnSuccess: func(data []byte) {
			n, err := strconv.Atoi(strings.TrimSpace(string(data)))
			if err != nil {
				c.log.Warn("follower count malformed", "url", url, "error", err)
				if h.OnError != nil {
					h.OnError(0, data)
				}
				return
			}
			if h.OnSuccess != nil {
				h.OnSuccess(n)
			}
		},
		OnError:    h.OnError,
		OnComplete: h.OnComplete,
	})
}

// SignIn attempts a sign-in. Failed credentials still arrive through
// OnSuccess with a nil session id; only transport and server errors take
// the error path.
func (c *Client) SignIn(ctx context.Context, username, password string, h Handlers[AccountResult]) {
	c.loader.Do(ctx, loader.Request{
		Method: http.MethodPost,
		URL:    "/cgi-bin/account/sign_in",
		Body:   map[string]string{"username": username, "password": password},
	}, decodeCallbacks(c, h))
}

// SignUp attempts account creation. form is the JSON body to post.
func (c *Client) SignUp(ctx context.Context, form any, h Handlers[AccountResult]) {
	c.loader.Do(ctx, loader.Request{
		Method: http.MethodPost,
		URL:    "/cgi-bin/account/sign_up",
		Body:   form,
	}, decodeCallbacks(c, h))
}

// SignOut posts the bare session token. Fire and forget: the legacy
// endpoint reads the raw body, and the caller never waits on the outcome.
func (c *Client) SignOut(ctx context.Context, token string) {
	c.loader.Do(ctx, loader.Request{
		Method: http.MethodPost,
		URL:    "/cgi-bin/account/sign_out",
		Body:   token,
	}, loader.Callbacks{})
}

func (c *Client) post(ctx context.Context, url string, body any, d Done) {
	// Mutation bodies are "true" text, nothing to decode.
	c.loader.Do(ctx, loader.Request{Method: http.MethodPost, URL: url, Body: body}, loader.Callbacks{
		OnSuccess: func([]byte) {
			if d.OnSuccess != nil {
				d.OnSuccess()
			}
		},
		OnError:    d.OnError,
		OnComplete: d.OnComplete,
	})
}

func call[T any](c *Client, ctx context.Context, req loader.Request, h Handlers[T]) {
	c.loader.Do(ctx, req, decodeCallbacks(c, h))
}

func decodeCallbacks[T any](c *Client, h Handlers[T]) loader.Callbacks {
	return loader.Callbacks{
		OnSuccess: func(data []byte) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				c.log.Warn("response body malformed", "error", err)
				if h.OnError != nil {
					h.OnError(0, data)
				}
				return
			}
			if h.OnSuccess != nil {
				h.OnSuccess(v)
			}
		},
		OnError:    h.OnError,
		OnComplete: h.OnComplete,
	}
}
