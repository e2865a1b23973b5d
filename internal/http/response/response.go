// Package response writes the legacy wire formats the shell's content
// loader expects: bare JSON values, "true" acknowledgements, decimal
// counts, and display-ready HTML fragments.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bookdenapp/bookden-shell/internal/errors"
)

// JSON writes data as a bare JSON value. The protocol predates response
// envelopes; the client decodes the body directly.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, data); err != nil {
		if logger != nil {
			logger.Error("failed to encode JSON response", "error", err)
		}
	}
}

// True acknowledges a mutation. The client ignores the body, but the
// first-generation CGI scripts answered "true" and the shape stuck.
func True(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("true"))
}

// Count writes a bare decimal, the follow/unfollow response format.
func Count(w http.ResponseWriter, n int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(strconv.Itoa(n)))
}

// Fragment writes display-ready HTML. Non-2xx fragment bodies are spliced
// into the page as-is, so they must be complete markup.
func Fragment(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(html))
}

// HandleError maps a domain error to its HTTP status with a small JSON
// body. Unknown errors become 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		JSON(w, domainErr.HTTPStatus(), map[string]string{"message": domainErr.Message}, logger)
		return
	}
	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	JSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"}, logger)
}
