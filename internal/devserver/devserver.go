// Package devserver is a self-contained development backend for the shell.
// It serves the page chrome, the view fragments and the whole legacy
// /cgi-bin API from an in-memory catalog, so the shell can be exercised
// without the production book service.
package devserver

import (
	"embed"
	"encoding/json/v2"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookdenapp/bookden-shell/internal/color"
	"github.com/bookdenapp/bookden-shell/internal/errors"
	"github.com/bookdenapp/bookden-shell/internal/http/response"
	"github.com/bookdenapp/bookden-shell/internal/logger"
)

//go:embed assets
var assets embed.FS

// Server is the development backend: chrome, fragments and the /cgi-bin
// API over an in-memory store.
type Server struct {
	router *chi.Mux
	store  *Store
	tokens *tokenService
	log    *logger.Logger

	// revoked holds signed-out tokens. PASETO tokens are stateless, so
	// sign-out is a denylist until the token expires anyway.
	mu      sync.Mutex
	revoked map[string]bool
}

// New creates a Server around the given store.
func New(store *Store, log *logger.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		store:   store,
		tokens:  newTokenService(),
		log:     log,
		revoked: make(map[string]bool),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleShell)
	s.router.Get("/html/{page}", s.handleFragment)
	s.router.Get("/covers/{file}", s.handleCover)

	static, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.FileServerFS(static))

	s.router.Route("/cgi-bin", func(r chi.Router) {
		r.Route("/account", func(r chi.Router) {
			r.Post("/sign_in", s.handleSignIn)
			r.Post("/sign_up", s.handleSignUp)
			r.Post("/sign_out", s.handleSignOut)
		})
		r.Route("/my_books", func(r chi.Router) {
			r.Get("/get_lists", s.handleGetLists)
			r.Get("/get_list_entries", s.handleGetListEntries)
			r.Post("/create_list", s.handleCreateList)
			r.Post("/remove_list", s.handleRemoveList)
			r.Post("/add_list_entry", s.handleAddEntry)
			r.Post("/remove_list_entry", s.handleRemoveEntry)
			r.Post("/move_list_entry", s.handleMoveEntry)
		})
		r.Route("/genres", func(r chi.Router) {
			r.Get("/about_data", s.handleGenreAbout)
		})
		r.Route("/books", func(r chi.Router) {
			r.Get("/about_data", s.handleBookAbout)
			r.Post("/delete_review", s.handleDeleteReview)
		})
		r.Route("/authors", func(r chi.Router) {
			r.Post("/follow_author", s.handleFollow)
			r.Post("/unfollow_author", s.handleUnfollow)
		})
	})

	// Everything else under the shell's route space serves the chrome, so
	// deep links like /book/bk-xyz restore into the right view.
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && !strings.Contains(r.URL.Path, ".") {
			s.handleShell(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// userFor resolves a session token to a user id. Revoked, expired and
// malformed tokens read as anonymous.
func (s *Server) userFor(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	s.mu.Lock()
	revoked := s.revoked[token]
	s.mu.Unlock()
	if revoked {
		return "", false
	}
	return s.tokens.verify(token)
}

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	data, err := assets.ReadFile("assets/shell.html")
	if err != nil {
		s.log.Error("shell page missing from embedded assets", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	response.Fragment(w, http.StatusOK, string(data))
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	data, err := fs.ReadFile(assets, "assets/html/"+page)
	if err != nil {
		response.Fragment(w, http.StatusNotFound, errorPage("Page not found",
			fmt.Sprintf("No page called %s exists.", html.EscapeString(strings.TrimSuffix(page, ".html")))))
		return
	}
	response.Fragment(w, http.StatusOK, string(data))
}

// handleCover serves a generated SVG placeholder. The catalog has no real
// cover art; the color is derived from the book id so covers stay stable.
func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	bookID := strings.TrimSuffix(name, ".svg")

	title, ok := s.store.BookTitle(bookID)
	if !ok {
		title = "?"
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "max-age=86400")
	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="240" height="360">`+
		`<rect width="240" height="360" fill="%s"/>`+
		`<text x="120" y="180" fill="#fff" font-family="Georgia, serif" font-size="18" text-anchor="middle">%s</text>`+
		`</svg>`, color.ForID(bookID), html.EscapeString(title))
}

type accountResponse struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.HandleError(w, errors.Validation("malformed request body"), s.log.Logger)
		return
	}

	userID, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		// Bad credentials are an application-level outcome, not a
		// transport error: 200 with a null session id.
		if errors.Is(err, errors.ErrInvalidCredentials) {
			response.JSON(w, http.StatusOK, accountResponse{Message: "Invalid username or password"}, s.log.Logger)
			return
		}
		response.HandleError(w, err, s.log.Logger)
		return
	}

	token, err := s.tokens.issue(userID)
	if err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	s.log.Info("user signed in", "username", req.Username)
	response.JSON(w, http.StatusOK, accountResponse{Message: "Signed in", SessionID: &token}, s.log.Logger)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"first_name"`
		Surname   string `json:"surname"`
		Username  string `json:"username"`
		Password  string `json:"password"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.HandleError(w, errors.Validation("malformed request body"), s.log.Logger)
		return
	}
	if strings.TrimSpace(req.Username) == "" || len(req.Password) < 8 {
		response.JSON(w, http.StatusOK, accountResponse{Message: "Username and a password of at least 8 characters are required"}, s.log.Logger)
		return
	}

	userID, err := s.store.CreateUser(req.FirstName, req.Surname, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errors.ErrAlreadyExists) {
			response.JSON(w, http.StatusOK, accountResponse{Message: "Username is already taken"}, s.log.Logger)
			return
		}
		response.HandleError(w, err, s.log.Logger)
		return
	}

	token, err := s.tokens.issue(userID)
	if err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	s.log.Info("user signed up", "username", req.Username)
	response.JSON(w, http.StatusOK, accountResponse{Message: "Account created", SessionID: &token}, s.log.Logger)
}

// handleSignOut reads the bare token from the body, a quirk kept from the
// first-generation API.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		response.True(w)
		return
	}
	if token := strings.TrimSpace(string(data)); token != "" {
		s.mu.Lock()
		s.revoked[token] = true
		s.mu.Unlock()
	}
	response.True(w)
}

func (s *Server) handleGetLists(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFor(r.URL.Query().Get("session_id"))
	if !ok {
		response.HandleError(w, errors.Unauthorized("sign in required"), s.log.Logger)
		return
	}
	response.JSON(w, http.StatusOK, s.store.Lists(userID), s.log.Logger)
}

func (s *Server) handleGetListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFor(r.URL.Query().Get("session_id"))
	if !ok {
		response.HandleError(w, errors.Unauthorized("sign in required"), s.log.Logger)
		return
	}
	entries, err := s.store.ListEntries(userID, r.URL.Query().Get("list_id"))
	if err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.JSON(w, http.StatusOK, entries, s.log.Logger)
}

// listMutation is the shared body shape of the my_books POST endpoints.
// Unused fields decode to empty strings.
type listMutation struct {
	SessionID    string `json:"session_id"`
	ListID       string `json:"list_id"`
	TargetListID string `json:"target_list_id"`
	BookID       string `json:"book_id"`
	ListName     string `json:"list_name"`
	ReviewID     string `json:"review_id"`
	AuthorID     string `json:"author_id"`
}

// mutation decodes the body and resolves the session, writing the error
// response itself when either fails.
func (s *Server) mutation(w http.ResponseWriter, r *http.Request) (listMutation, string, bool) {
	var req listMutation
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.HandleError(w, errors.Validation("malformed request body"), s.log.Logger)
		return req, "", false
	}
	userID, ok := s.userFor(req.SessionID)
	if !ok {
		response.HandleError(w, errors.Unauthorized("sign in required"), s.log.Logger)
		return req, "", false
	}
	return req, userID, true
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	req, userID, ok := s.mutation(w, r)
	if !ok {
		return
	}
	if err := s.store.CreateList(userID, req.ListName); err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.True(w)
}

func (s *Server) handleRemoveList(w http.ResponseWriter, r *http.Request) {
	req, userID, ok := s.mutation(w, r)
	if !ok {
		return
	}
	if err := s.store.RemoveList(userID, req.ListID); err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.True(w)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	req, userID, ok := s.mutation(w, r)
	if !ok {
		return
	}
	if err := s.store.AddEntry(userID, req.ListID, req.BookID); err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.True(w)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	req, userID, ok := s.mutation(w, r)
	if !ok {
		return
	}
	if err := s.store.RemoveEntry(userID, req.ListID, req.BookID); err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.True(w)
}

func (s *Server) handleMoveEntry(w http.ResponseWriter, r *http.Request) {
	req, userID, ok := s.mutation(w, r)
	if !ok {
		return
	}
	if err := s.store.MoveEntry(userID, req.ListID, req.TargetListID, req.BookID); err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.True(w)
}

// handleGenreAbout answers with JSON on success but display-ready HTML on
// failure: the shell splices error bodies straight into main.
func (s *Server) handleGenreAbout(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("genre_name")
	about, err := s.store.GenreAbout(name)
	if err != nil {
		response.Fragment(w, http.StatusNotFound, errorPage("Genre not found",
			fmt.Sprintf("There is no genre called %s.", html.EscapeString(name))))
		return
	}
	response.JSON(w, http.StatusOK, about, s.log.Logger)
}

func (s *Server) handleBookAbout(w http.ResponseWriter, r *http.Request) {
	bookID := r.URL.Query().Get("book_id")
	// An invalid session degrades to the anonymous view rather than
	// failing the page.
	userID, _ := s.userFor(r.URL.Query().Get("session_id"))

	about, err := s.store.BookAbout(bookID, userID)
	if err != nil {
		response.Fragment(w, http.StatusNotFound, errorPage("Book not found",
			"That book is not in the catalog."))
		return
	}
	response.JSON(w, http.StatusOK, about, s.log.Logger)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	req, userID, ok := s.mutation(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteReview(userID, req.ReviewID); err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.True(w)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	req, userID, ok := s.mutation(w, r)
	if !ok {
		return
	}
	n, err := s.store.Follow(userID, req.AuthorID)
	if err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.Count(w, n)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	req, userID, ok := s.mutation(w, r)
	if !ok {
		return
	}
	n, err := s.store.Unfollow(userID, req.AuthorID)
	if err != nil {
		response.HandleError(w, err, s.log.Logger)
		return
	}
	response.Count(w, n)
}

// errorPage builds a display-ready error fragment.
func errorPage(title, message string) string {
	return `<div class="error-page"><h1>` + html.EscapeString(title) + `</h1><p>` + message + `</p></div>`
}
