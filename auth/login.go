package auth

import (
	"errors"
	"html"
	"io"
	"net/http"

	"github.com/lumon/idp/internal/httpx"
	"github.com/lumon/idp/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginNew handles GET /login. The query string of an interrupted
// authorization request rides along on the form action so the flow can
// resume after login.
func LoginNew(env *Env, w http.ResponseWriter, r *http.Request) error {
	user, err := CurrentUser(env.DB, r)
	if err != nil {
		return err
	}
	if user != nil {
		return httpx.Redirect(w, "/")
	}
	return loginPage(w, r.URL.RawQuery, "")
}

// LoginCreate handles POST /login.
func LoginCreate(env *Env, w http.ResponseWriter, r *http.Request) error {
	var params struct {
		Username string `schema:"username"`
		Password string `schema:"password"`
	}
	if err := httpx.Params(r, &params); err != nil {
		return err
	}

	user, err := models.NewUsers(env.DB).FindByUsername(params.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	// unknown username and wrong password render the same way
	if user == nil || bcrypt.CompareHashAndPassword(user.EncryptedPassword, []byte(params.Password)) != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return loginPage(w, r.URL.RawQuery, "Invalid username or password")
	}

	if err := signIn(env.DB, w, user); err != nil {
		return err
	}
	if r.URL.RawQuery != "" {
		return httpx.Redirect(w, "/authorize?"+r.URL.RawQuery)
	}
	return httpx.Redirect(w, "/")
}

// Logout handles GET /logout.
func Logout(env *Env, w http.ResponseWriter, r *http.Request) error {
	if err := signOut(env.DB, w, r); err != nil {
		return err
	}
	return httpx.Redirect(w, "/")
}

func loginPage(w http.ResponseWriter, rawQuery, message string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	action := "/login"
	if rawQuery != "" {
		action += "?" + html.EscapeString(rawQuery)
	}
	var notice string
	if message != "" {
		notice = `<p>` + html.EscapeString(message) + `</p>`
	}
	_, err := io.WriteString(w, `
		<!DOCTYPE html>
		<html>
		<head>
		<meta charset="utf-8">
		<title>Sign in</title>
		</head>
		<body>
		<h1>Sign in</h1>`+notice+`
		<form method="POST" action="`+action+`">
		<p><label for="username">Username</label><input id="username" type="text" name="username"></p>
		<p><label for="password">Password</label><input id="password" type="password" name="password"></p>
		<p><button type="submit">Sign in</button></p>
		</form>
		<p><a href="/register">Create an account</a></p>
		</body>
		</html>
	`)
	return err
}
