package httpx

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// Params decodes the request parameters into the given struct; the query
// string for GET and HEAD, the form body for POST.
func Params(r *http.Request, v interface{}) error {
	switch r.Method {
	case "GET", "HEAD":
		values, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return Error(http.StatusBadRequest, err)
		}
		if err := decoder.Decode(v, values); err != nil {
			return Error(http.StatusBadRequest, err)
		}
	case "POST":
		if err := r.ParseForm(); err != nil {
			return Error(http.StatusBadRequest, err)
		}
		if err := decoder.Decode(v, r.PostForm); err != nil {
			return Error(http.StatusBadRequest, err)
		}
	default:
		return Error(http.StatusMethodNotAllowed, errors.New("unsupported method: "+r.Method))
	}
	return nil
}
