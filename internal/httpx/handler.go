// Package httpx lets handlers return errors instead of writing status codes
// by hand.
// see https://blog.questionable.services/article/http-handler-error-handling-revisited/ for more details.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-json-experiment/json"
	"golang.org/x/exp/slog"
)

// Error is a convenience function for returning an error with an associated HTTP status code.
func Error(code int, err error) error {
	return &StatusError{code, err}
}

// StatusError represents an error with an associated HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

// Allows StatusError to satisfy the error interface.
func (se *StatusError) Error() string {
	return se.Err.Error()
}

// Returns our HTTP status code.
func (se *StatusError) Status() int {
	return se.Code
}

// Unwrap returns the underlying error.
func (se *StatusError) Unwrap() error {
	return se.Err
}

// An Env carries a logger; all handler environments satisfy it.
type Env interface {
	Log() *slog.Logger
}

// HandlerFunc adapts a function that returns an error to an http.HandlerFunc.
// A StatusError is written with its status code and a JSON body; any other
// error is an invariant violation and is written as a 500.
func HandlerFunc[E Env](envFn func(r *http.Request) E, fn func(E, http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := envFn(r)
		err := fn(env, w, r)
		if err == nil {
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		status := http.StatusInternalServerError
		body := http.StatusText(http.StatusInternalServerError)
		if se := new(StatusError); errors.As(err, &se) {
			status = se.Status()
			body = se.Error()
		}
		env.Log().Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
		w.WriteHeader(status)
		json.MarshalFull(w, map[string]any{
			"error": body,
		})
	}
}

// Redirect returns a 302 redirect to the specified URI.
func Redirect(w http.ResponseWriter, uri string) error {
	w.Header().Set("Location", uri)
	w.WriteHeader(302)
	return nil
}
