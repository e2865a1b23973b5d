package devserver

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdenapp/bookden-shell/internal/backend"
	"github.com/bookdenapp/bookden-shell/internal/logger"
)

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	st := NewStore()
	require.NoError(t, Seed(st))
	log := logger.New(logger.Config{Writer: os.Stdout, Level: slog.LevelError, Format: "json"})
	ts := httptest.NewServer(New(st, log))
	t.Cleanup(ts.Close)
	return ts, st
}

func getBody(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func postJSON(t *testing.T, url string, body any) (int, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func signIn(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()
	status, data := postJSON(t, ts.URL+"/cgi-bin/account/sign_in", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, status)
	var res backend.AccountResult
	require.NoError(t, json.Unmarshal(data, &res))
	require.NotNil(t, res.SessionID, "sign-in failed: %s", res.Message)
	return *res.SessionID
}

func (s *Store) bookByTitle(t *testing.T, title string) *book {
	t.Helper()
	for _, b := range s.books {
		if b.title == title {
			return b
		}
	}
	t.Fatalf("seed book %q not found", title)
	return nil
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	ts, _ := newTestServer(t)

	status, data := postJSON(t, ts.URL+"/cgi-bin/account/sign_in", map[string]string{
		"username": "demo", "password": "wrong-password",
	})

	// Bad credentials are a 200 with a null session id, not a 4xx.
	require.Equal(t, http.StatusOK, status)
	var res backend.AccountResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Nil(t, res.SessionID)
	assert.Equal(t, "Invalid username or password", res.Message)
}

func TestSignUpCreatesPermanentLists(t *testing.T) {
	ts, _ := newTestServer(t)

	status, data := postJSON(t, ts.URL+"/cgi-bin/account/sign_up", map[string]string{
		"first_name": "New", "surname": "Reader",
		"username": "newreader", "password": "longenough",
	})
	require.Equal(t, http.StatusOK, status)
	var res backend.AccountResult
	require.NoError(t, json.Unmarshal(data, &res))
	require.NotNil(t, res.SessionID)

	status, data = getBody(t, ts.URL+"/cgi-bin/my_books/get_lists?session_id="+*res.SessionID)
	require.Equal(t, http.StatusOK, status)
	var lists []backend.ListInfo
	require.NoError(t, json.Unmarshal(data, &lists))
	require.Len(t, lists, 3)
	assert.Equal(t, "Currently Reading", lists[0].Name)
	assert.Equal(t, "Want to Read", lists[1].Name)
	assert.Equal(t, "Have Read", lists[2].Name)
}

func TestSignUpRejectsTakenUsername(t *testing.T) {
	ts, _ := newTestServer(t)

	status, data := postJSON(t, ts.URL+"/cgi-bin/account/sign_up", map[string]string{
		"first_name": "Other", "surname": "Demo",
		"username": "demo", "password": "longenough",
	})
	require.Equal(t, http.StatusOK, status)
	var res backend.AccountResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Nil(t, res.SessionID)
	assert.Equal(t, "Username is already taken", res.Message)
}

func TestSignOutRevokesToken(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signIn(t, ts, "demo", "bookworm-demo")

	// The endpoint takes the bare token as the body.
	resp, err := http.Post(ts.URL+"/cgi-bin/account/sign_out", "text/plain", strings.NewReader(token))
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "true", string(data))

	status, _ := getBody(t, ts.URL+"/cgi-bin/my_books/get_lists?session_id="+token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestListEntriesCarriesForwardingButton(t *testing.T) {
	ts, st := newTestServer(t)
	token := signIn(t, ts, "demo", "bookworm-demo")

	status, data := getBody(t, ts.URL+"/cgi-bin/my_books/get_lists?session_id="+token)
	require.Equal(t, http.StatusOK, status)
	var lists []backend.ListInfo
	require.NoError(t, json.Unmarshal(data, &lists))

	byName := map[string]string{}
	for _, l := range lists {
		byName[l.Name] = l.ID
	}

	status, data = getBody(t, ts.URL+"/cgi-bin/my_books/get_list_entries?session_id="+token+"&list_id="+byName["Currently Reading"])
	require.Equal(t, http.StatusOK, status)
	var entries backend.ListEntries
	require.NoError(t, json.Unmarshal(data, &entries))

	require.NotNil(t, entries.Button)
	assert.Equal(t, "Mark as Read", *entries.Button)
	require.NotNil(t, entries.MoveTargetID)
	assert.Equal(t, byName["Have Read"], *entries.MoveTargetID)
	assert.Nil(t, entries.Meta)

	// Newest addition first.
	require.Len(t, entries.Books, 2)
	assert.Equal(t, "Hyperion", entries.Books[0].Title)
	assert.Equal(t, "A Wizard of Earthsea", entries.Books[1].Title)
	assert.Equal(t, st.bookByTitle(t, "Hyperion").id, entries.Books[0].ID)
	assert.Contains(t, entries.Books[0].Synopsis, "<p>")
}

func TestEmptyListCarriesMetaMessage(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signIn(t, ts, "demo", "bookworm-demo")

	status, _ := postJSON(t, ts.URL+"/cgi-bin/my_books/create_list", map[string]string{
		"session_id": token, "list_name": "Summer Picks",
	})
	require.Equal(t, http.StatusOK, status)

	_, data := getBody(t, ts.URL+"/cgi-bin/my_books/get_lists?session_id="+token)
	var lists []backend.ListInfo
	require.NoError(t, json.Unmarshal(data, &lists))
	require.Len(t, lists, 4)
	created := lists[3]
	assert.Equal(t, "Summer Picks", created.Name)

	_, data = getBody(t, ts.URL+"/cgi-bin/my_books/get_list_entries?session_id="+token+"&list_id="+created.ID)
	var entries backend.ListEntries
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Nil(t, entries.Button)
	require.NotNil(t, entries.Meta)
	assert.Equal(t, "You have no books in this list", *entries.Meta)
}

func TestRemoveListProtectsPermanentLists(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signIn(t, ts, "demo", "bookworm-demo")

	_, data := getBody(t, ts.URL+"/cgi-bin/my_books/get_lists?session_id="+token)
	var lists []backend.ListInfo
	require.NoError(t, json.Unmarshal(data, &lists))

	status, _ := postJSON(t, ts.URL+"/cgi-bin/my_books/remove_list", map[string]string{
		"session_id": token, "list_id": lists[0].ID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMoveEntryBetweenLists(t *testing.T) {
	ts, st := newTestServer(t)
	token := signIn(t, ts, "demo", "bookworm-demo")

	_, data := getBody(t, ts.URL+"/cgi-bin/my_books/get_lists?session_id="+token)
	var lists []backend.ListInfo
	require.NoError(t, json.Unmarshal(data, &lists))
	reading, read := lists[0], lists[2]

	hyperion := st.bookByTitle(t, "Hyperion").id
	status, body := postJSON(t, ts.URL+"/cgi-bin/my_books/move_list_entry", map[string]string{
		"session_id": token, "list_id": reading.ID, "target_list_id": read.ID, "book_id": hyperion,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "true", string(body))

	_, data = getBody(t, ts.URL+"/cgi-bin/my_books/get_list_entries?session_id="+token+"&list_id="+read.ID)
	var entries backend.ListEntries
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries.Books, 3)
	assert.Equal(t, "Hyperion", entries.Books[0].Title)
}

func TestGenreAbout(t *testing.T) {
	ts, _ := newTestServer(t)

	status, data := getBody(t, ts.URL+"/cgi-bin/genres/about_data?genre_name=Science+Fiction")
	require.Equal(t, http.StatusOK, status)
	var about backend.GenreAbout
	require.NoError(t, json.Unmarshal(data, &about))

	assert.Equal(t, "Science Fiction", about.Name)
	assert.Contains(t, about.About, "<p>")
	require.Len(t, about.Books, 4)
	// Alphabetical by title.
	assert.Equal(t, "Dune", about.Books[0].Title)
	assert.Equal(t, "Frank Herbert", about.Books[0].Author)
}

func TestGenreAboutUnknownReturnsErrorFragment(t *testing.T) {
	ts, _ := newTestServer(t)

	status, data := getBody(t, ts.URL+"/cgi-bin/genres/about_data?genre_name=Cooking")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(data), `class="error-page"`)
	assert.Contains(t, string(data), "Cooking")
}

func TestBookAboutSignedIn(t *testing.T) {
	ts, st := newTestServer(t)
	token := signIn(t, ts, "demo", "bookworm-demo")
	dune := st.bookByTitle(t, "Dune").id

	status, data := getBody(t, ts.URL+"/cgi-bin/books/about_data?book_id="+dune+"&session_id="+token)
	require.Equal(t, http.StatusOK, status)
	var about backend.BookAbout
	require.NoError(t, json.Unmarshal(data, &about))

	assert.Equal(t, "Dune", about.Title)
	assert.Equal(t, "Frank Herbert", about.Author)
	assert.Equal(t, 2, about.NumRatings)
	assert.InDelta(t, 4.5, about.AverageRating, 0.001)
	assert.Equal(t, [5]int{1, 1, 0, 0, 0}, about.StarCounts())

	// The caller's own review is split out of the list.
	require.NotNil(t, about.CurrentUserReview)
	assert.Equal(t, 5, about.CurrentUserReview.OverallRating)
	require.Len(t, about.Reviews, 1)
	assert.Equal(t, "casey", about.Reviews[0].Username)

	// Demo has Dune on Have Read but does not follow Herbert.
	assert.NotNil(t, about.ListID)
	assert.False(t, about.AuthorFollowing)
	assert.Equal(t, 0, about.AuthorFollowers)
	assert.Equal(t, 2, about.NumRead)
}

func TestBookAboutAnonymous(t *testing.T) {
	ts, st := newTestServer(t)
	dune := st.bookByTitle(t, "Dune").id

	status, data := getBody(t, ts.URL+"/cgi-bin/books/about_data?book_id="+dune+"&session_id=")
	require.Equal(t, http.StatusOK, status)
	var about backend.BookAbout
	require.NoError(t, json.Unmarshal(data, &about))

	assert.Nil(t, about.CurrentUserReview)
	assert.Nil(t, about.ListID)
	assert.False(t, about.AuthorFollowing)
	// Every review shows for an anonymous reader.
	assert.Len(t, about.Reviews, 2)
}

func TestFollowReturnsBareCount(t *testing.T) {
	ts, st := newTestServer(t)
	token := signIn(t, ts, "demo", "bookworm-demo")
	herbert := st.bookByTitle(t, "Dune").authorID

	status, data := postJSON(t, ts.URL+"/cgi-bin/authors/follow_author", map[string]string{
		"session_id": token, "author_id": herbert,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1", string(data))

	status, data = postJSON(t, ts.URL+"/cgi-bin/authors/unfollow_author", map[string]string{
		"session_id": token, "author_id": herbert,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", string(data))
}

func TestDeleteReviewOwnOnly(t *testing.T) {
	ts, st := newTestServer(t)
	token := signIn(t, ts, "demo", "bookworm-demo")
	dune := st.bookByTitle(t, "Dune").id

	_, data := getBody(t, ts.URL+"/cgi-bin/books/about_data?book_id="+dune+"&session_id="+token)
	var about backend.BookAbout
	require.NoError(t, json.Unmarshal(data, &about))
	require.NotNil(t, about.CurrentUserReview)

	// Deleting someone else's review is a 404.
	status, _ := postJSON(t, ts.URL+"/cgi-bin/books/delete_review", map[string]string{
		"session_id": token, "review_id": about.Reviews[0].ID,
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, body := postJSON(t, ts.URL+"/cgi-bin/books/delete_review", map[string]string{
		"session_id": token, "review_id": about.CurrentUserReview.ID,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "true", string(body))

	_, data = getBody(t, ts.URL+"/cgi-bin/books/about_data?book_id="+dune+"&session_id="+token)
	require.NoError(t, json.Unmarshal(data, &about))
	assert.Nil(t, about.CurrentUserReview)
	assert.Equal(t, 1, about.NumRatings)
}

func TestShellServedForDeepLinks(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/", "/my-books", "/genre/science-fiction", "/book/bk-abc"} {
		status, data := getBody(t, ts.URL+path)
		assert.Equal(t, http.StatusOK, status, path)
		assert.Contains(t, string(data), `nav class="bottom"`, path)
	}
}

func TestFragments(t *testing.T) {
	ts, _ := newTestServer(t)

	status, data := getBody(t, ts.URL+"/html/my_books.html")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `class="book template"`)

	status, data = getBody(t, ts.URL+"/html/no_such_page.html")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(data), `class="error-page"`)
}

func TestCoverPlaceholder(t *testing.T) {
	ts, st := newTestServer(t)
	dune := st.bookByTitle(t, "Dune")

	status, data := getBody(t, ts.URL+"/covers/"+dune.id+".svg")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "Dune")
}
