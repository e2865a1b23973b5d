package devserver

import (
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bookdenapp/bookden-shell/internal/backend"
	domainerrors "github.com/bookdenapp/bookden-shell/internal/errors"
	"github.com/bookdenapp/bookden-shell/internal/id"
)

// dateLayout matches the dd/mm/yyyy dates the book service has always
// served.
const dateLayout = "02/01/2006"

// permanentLists exist for every user and cannot be deleted.
var permanentLists = []string{"Currently Reading", "Want to Read", "Have Read"}

type user struct {
	id           string
	firstName    string
	surname      string
	username     string
	passwordHash string
}

type author struct {
	id    string
	name  string
	about string
	// followers is the set of user ids following this author.
	followers map[string]bool
}

type book struct {
	id           string
	title        string
	authorID     string
	cover        string
	synopsis     string
	purchaseLink string
	releaseDate  string
	isbn         string
	genres       []string
}

type review struct {
	id        string
	bookID    string
	userID    string
	overall   int
	plot      *int
	character *int
	summary   *string
	body      *string
	added     time.Time
}

type listEntry struct {
	bookID string
	added  time.Time
}

type readingList struct {
	id      string
	userID  string
	name    string
	entries []listEntry
}

type genre struct {
	id    string
	name  string
	about string
}

// Store is the in-memory catalog behind the development backend. All access
// goes through the mutex; the HTTP handlers run concurrently.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*user
	authors map[string]*author
	books   map[string]*book
	genres  []*genre
	reviews []*review
	lists   []*readingList
}

// NewStore creates an empty catalog.
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*user),
		authors: make(map[string]*author),
		books:   make(map[string]*book),
	}
}

// paragraphs converts newline-separated prose into the paragraph-block HTML
// the clients splice in directly.
func paragraphs(s string) string {
	return strings.Join(strings.Split("<p>"+s+"</p>", "\n"), "</p><p>")
}

// CreateUser registers a user with the three permanent lists. The username
// must be free.
func (s *Store) CreateUser(firstName, surname, username, password string) (string, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return "", domainerrors.Validation("password rejected").WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.username == username {
			return "", domainerrors.AlreadyExists("Username is already taken.")
		}
	}

	uid := id.MustGenerate(id.PrefixUser)
	s.users[uid] = &user{
		id:           uid,
		firstName:    firstName,
		surname:      surname,
		username:     username,
		passwordHash: hash,
	}
	for _, name := range permanentLists {
		s.lists = append(s.lists, &readingList{
			id:     id.MustGenerate(id.PrefixList),
			userID: uid,
			name:   name,
		})
	}
	return uid, nil
}

// Authenticate checks credentials and returns the user id.
func (s *Store) Authenticate(username, password string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.username == username && verifyPassword(u.passwordHash, password) {
			return u.id, nil
		}
	}
	return "", domainerrors.InvalidCredentials("Invalid username or password")
}

// Lists returns the user's reading lists in creation order.
func (s *Store) Lists(userID string) []backend.ListInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []backend.ListInfo
	for _, l := range s.lists {
		if l.userID == userID {
			out = append(out, backend.ListInfo{ID: l.id, Name: l.name})
		}
	}
	return out
}

// ListEntries assembles the card payload for one list: books newest first,
// plus the forwarding button for the two in-progress lists.
func (s *Store) ListEntries(userID, listID string) (backend.ListEntries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.findList(listID)
	if l == nil || l.userID != userID {
		return backend.ListEntries{}, domainerrors.NotFoundf("list %q not found", listID)
	}

	entries := slices.Clone(l.entries)
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].added.Equal(entries[j].added) {
			return entries[i].added.After(entries[j].added)
		}
		return s.books[entries[i].bookID].title < s.books[entries[j].bookID].title
	})

	result := backend.ListEntries{Books: make([]backend.BookEntry, 0, len(entries))}
	for _, e := range entries {
		b, ok := s.books[e.bookID]
		if !ok {
			continue
		}
		avg, count := s.ratingSummary(b.id)
		result.Books = append(result.Books, backend.BookEntry{
			ID:            b.id,
			Cover:         b.cover,
			Title:         b.title,
			Synopsis:      paragraphs(b.synopsis),
			Author:        s.authors[b.authorID].name,
			AuthorID:      b.authorID,
			DateAdded:     e.added.Format(dateLayout),
			Genres:        slices.Clone(b.genres),
			AverageRating: avg,
			NumReviews:    count,
		})
	}

	switch l.name {
	case "Currently Reading":
		button := "Mark as Read"
		result.Button = &button
		if target := s.findUserList(userID, "Have Read"); target != nil {
			result.MoveTargetID = &target.id
		}
	case "Want to Read":
		button := "Start Reading"
		result.Button = &button
		if target := s.findUserList(userID, "Currently Reading"); target != nil {
			result.MoveTargetID = &target.id
		}
	}

	if len(result.Books) == 0 {
		meta := "You have no books in this list"
		result.Meta = &meta
	}
	return result, nil
}

// CreateList adds a named list for the user.
func (s *Store) CreateList(userID, name string) error {
	if strings.TrimSpace(name) == "" {
		return domainerrors.Validation("list name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findUserListLocked(userID, name) != nil {
		return domainerrors.AlreadyExists("A list with that name already exists.")
	}
	s.lists = append(s.lists, &readingList{
		id:     id.MustGenerate(id.PrefixList),
		userID: userID,
		name:   name,
	})
	return nil
}

// RemoveList deletes a non-permanent list and its entries.
func (s *Store) RemoveList(userID, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.lists {
		if l.id != listID || l.userID != userID {
			continue
		}
		if slices.Contains(permanentLists, l.name) {
			return domainerrors.Validationf("%q list is protected and cannot be deleted", l.name)
		}
		s.lists = append(s.lists[:i], s.lists[i+1:]...)
		return nil
	}
	return domainerrors.NotFoundf("list %q not found", listID)
}

// AddEntry puts a book on a list, replacing any duplicate so the added date
// refreshes.
func (s *Store) AddEntry(userID, listID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEntryLocked(userID, listID, bookID)
}

func (s *Store) addEntryLocked(userID, listID, bookID string) error {
	l := s.findList(listID)
	if l == nil || l.userID != userID {
		return domainerrors.NotFoundf("list %q not found", listID)
	}
	if _, ok := s.books[bookID]; !ok {
		return domainerrors.NotFoundf("book %q not found", bookID)
	}
	l.entries = slices.DeleteFunc(l.entries, func(e listEntry) bool { return e.bookID == bookID })
	l.entries = append(l.entries, listEntry{bookID: bookID, added: time.Now()})
	return nil
}

// RemoveEntry takes a book off a list.
func (s *Store) RemoveEntry(userID, listID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeEntryLocked(userID, listID, bookID)
}

func (s *Store) removeEntryLocked(userID, listID, bookID string) error {
	l := s.findList(listID)
	if l == nil || l.userID != userID {
		return domainerrors.NotFoundf("list %q not found", listID)
	}
	before := len(l.entries)
	l.entries = slices.DeleteFunc(l.entries, func(e listEntry) bool { return e.bookID == bookID })
	if len(l.entries) == before {
		return domainerrors.NotFoundf("book %q is not on the list", bookID)
	}
	return nil
}

// MoveEntry forwards a book between two of the user's lists atomically.
func (s *Store) MoveEntry(userID, listID, targetListID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.removeEntryLocked(userID, listID, bookID); err != nil {
		return err
	}
	return s.addEntryLocked(userID, targetListID, bookID)
}

// BookTitle looks up a book's title, for cover rendering.
func (s *Store) BookTitle(bookID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[bookID]
	if !ok {
		return "", false
	}
	return b.title, true
}

// GenreAbout assembles a genre page payload by display name.
func (s *Store) GenreAbout(name string) (backend.GenreAbout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var g *genre
	for _, candidate := range s.genres {
		if strings.EqualFold(candidate.name, name) {
			g = candidate
			break
		}
	}
	if g == nil {
		return backend.GenreAbout{}, domainerrors.NotFoundf("genre %q not found", name)
	}

	out := backend.GenreAbout{Name: g.name, About: paragraphs(g.about)}
	for _, b := range s.sortedBooks() {
		if slices.Contains(b.genres, g.name) {
			out.Books = append(out.Books, backend.BookSummary{
				ID:     b.id,
				Title:  b.title,
				Author: s.authors[b.authorID].name,
				Cover:  b.cover,
			})
		}
	}
	return out, nil
}

// BookAbout assembles the full detail payload. userID may be empty for an
// anonymous caller; then the personalized fields stay zero.
func (s *Store) BookAbout(bookID, userID string) (backend.BookAbout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[bookID]
	if !ok {
		return backend.BookAbout{}, domainerrors.NotFoundf("book %q not found", bookID)
	}
	a := s.authors[b.authorID]

	out := backend.BookAbout{
		Title:           b.title,
		Cover:           b.cover,
		Synopsis:        paragraphs(b.synopsis),
		PurchaseLink:    b.purchaseLink,
		ReleaseDate:     b.releaseDate,
		ISBN:            b.isbn,
		Author:          a.name,
		AuthorID:        a.id,
		AuthorAbout:     paragraphs(a.about),
		AuthorFollowers: len(a.followers),
		Genres:          slices.Clone(b.genres),
		NumWantRead:     s.listCount(b.id, "Want to Read"),
		NumReading:      s.listCount(b.id, "Currently Reading"),
		NumRead:         s.listCount(b.id, "Have Read"),
		Reviews:         []backend.Review{},
	}

	var sum int
	counts := [5]int{}
	for _, r := range s.reviews {
		if r.bookID != bookID {
			continue
		}
		sum += r.overall
		out.NumRatings++
		if r.overall >= 1 && r.overall <= 5 {
			counts[5-r.overall]++
		}
		if r.userID == userID {
			rv := s.wireReview(r)
			out.CurrentUserReview = &rv
			continue
		}
		out.Reviews = append(out.Reviews, s.wireReview(r))
	}
	out.Num5Stars, out.Num4Stars, out.Num3Stars, out.Num2Stars, out.Num1Star = counts[0], counts[1], counts[2], counts[3], counts[4]
	if out.NumRatings > 0 {
		out.AverageRating = math.Round(float64(sum)/float64(out.NumRatings)*100) / 100
	}

	if userID != "" {
		out.AuthorFollowing = a.followers[userID]
		if l := s.findUserList(userID, "Have Read"); l != nil {
			if slices.ContainsFunc(l.entries, func(e listEntry) bool { return e.bookID == bookID }) {
				out.ListID = &l.id
			}
		}
	}
	return out, nil
}

func (s *Store) wireReview(r *review) backend.Review {
	out := backend.Review{
		ID:              r.id,
		OverallRating:   r.overall,
		PlotRating:      r.plot,
		CharacterRating: r.character,
		Summary:         r.summary,
		DateAdded:       r.added.Format(dateLayout),
	}
	if u, ok := s.users[r.userID]; ok {
		out.Username = u.username
	}
	if r.body != nil {
		body := paragraphs(*r.body)
		out.Body = &body
	}
	return out
}

// DeleteReview removes the user's own review.
func (s *Store) DeleteReview(userID, reviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.reviews)
	s.reviews = slices.DeleteFunc(s.reviews, func(r *review) bool {
		return r.id == reviewID && r.userID == userID
	})
	if len(s.reviews) == before {
		return domainerrors.NotFoundf("review %q not found", reviewID)
	}
	return nil
}

// Follow records userID following authorID and returns the new follower
// count.
func (s *Store) Follow(userID, authorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.authors[authorID]
	if !ok {
		return 0, domainerrors.NotFoundf("author %q not found", authorID)
	}
	a.followers[userID] = true
	return len(a.followers), nil
}

// Unfollow is the inverse of Follow.
func (s *Store) Unfollow(userID, authorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.authors[authorID]
	if !ok {
		return 0, domainerrors.NotFoundf("author %q not found", authorID)
	}
	delete(a.followers, userID)
	return len(a.followers), nil
}

// ratingSummary computes the rounded average rating and review count for a
// book. Callers hold the lock.
func (s *Store) ratingSummary(bookID string) (float64, int) {
	var sum, count int
	for _, r := range s.reviews {
		if r.bookID == bookID {
			sum += r.overall
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return math.Round(float64(sum)/float64(count)*100) / 100, count
}

func (s *Store) listCount(bookID, listName string) int {
	n := 0
	for _, l := range s.lists {
		if l.name != listName {
			continue
		}
		if slices.ContainsFunc(l.entries, func(e listEntry) bool { return e.bookID == bookID }) {
			n++
		}
	}
	return n
}

func (s *Store) findList(listID string) *readingList {
	for _, l := range s.lists {
		if l.id == listID {
			return l
		}
	}
	return nil
}

func (s *Store) findUserList(userID, name string) *readingList {
	return s.findUserListLocked(userID, name)
}

func (s *Store) findUserListLocked(userID, name string) *readingList {
	for _, l := range s.lists {
		if l.userID == userID && l.name == name {
			return l
		}
	}
	return nil
}

func (s *Store) sortedBooks() []*book {
	books := make([]*book, 0, len(s.books))
	for _, b := range s.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].title < books[j].title })
	return books
}
