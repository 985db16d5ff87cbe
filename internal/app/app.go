// File: internal/app/app.go
package app

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Greeting is the body served on GET /.
const Greeting = "Hello World!"

// New builds the application handler. Nothing here binds a socket, so
// callers may drive it directly with httptest.
func New(log zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", Hello).Methods(http.MethodGet, http.MethodHead)

	var h http.Handler = r
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Send()
	})(h)
	h = hlog.NewHandler(log)(h)
	return h
}

// Hello writes the greeting.
func Hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, Greeting)
}
