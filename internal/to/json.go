// package to contains functions for converting between types.
package to

import (
	"net/http"

	"github.com/go-json-experiment/json"
)

// JSON writes the given object to the response body as JSON.
// If obj is a nil slice, an empty JSON array is written.
// If obj is a nil map, an empty JSON object is written.
func JSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.MarshalFull(w, obj)
}

// JSONStatus writes the given status code and object to the response body as
// JSON. Use it when the status is anything other than 200.
func JSONStatus(w http.ResponseWriter, code int, obj any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.MarshalFull(w, obj)
}
