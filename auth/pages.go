package auth

import (
	"html"
	"io"
	"net/http"
)

// HomeShow handles GET /.
func HomeShow(env *Env, w http.ResponseWriter, r *http.Request) error {
	user, err := CurrentUser(env.DB, r)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	body := `<p><a href="/login">Sign in</a></p>`
	if user != nil {
		body = `<p>Signed in as ` + html.EscapeString(user.Username) + `.</p><p><a href="/logout">Sign out</a></p>`
	}
	_, err = io.WriteString(w, `
		<!DOCTYPE html>
		<html>
		<head>
		<meta charset="utf-8">
		<title>Authorization server</title>
		</head>
		<body>
		<h1>Authorization server</h1>
		`+body+`
		</body>
		</html>
	`)
	return err
}

// ErrorShow handles GET /error, the page an /authorize request lands on when
// the client itself cannot be trusted. The offending parameters arrive on
// the query string and are shown to the user; nothing is ever sent to the
// client's redirect_uri from here.
func ErrorShow(env *Env, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var details string
	for name, vals := range r.URL.Query() {
		for _, v := range vals {
			details += `<dt>` + html.EscapeString(name) + `</dt><dd>` + html.EscapeString(v) + `</dd>`
		}
	}
	_, err := io.WriteString(w, `
		<!DOCTYPE html>
		<html>
		<head>
		<meta charset="utf-8">
		<title>Authorization failed</title>
		</head>
		<body>
		<h1>Authorization request failed</h1>
		<p>The application that sent you here is not registered with this
		server, or supplied a redirect address that does not match its
		registration. No data has been shared.</p>
		<dl>`+details+`</dl>
		</body>
		</html>
	`)
	return err
}
