package auth

import (
	"errors"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/lumon/idp/internal/httpx"
	"github.com/lumon/idp/models"
	"gorm.io/gorm"
)

type registerParams struct {
	Name     string `schema:"name"`
	Surname  string `schema:"surname"`
	Username string `schema:"username"`
	Password string `schema:"password"`
}

// RegisterNew handles GET /register.
func RegisterNew(env *Env, w http.ResponseWriter, r *http.Request) error {
	user, err := CurrentUser(env.DB, r)
	if err != nil {
		return err
	}
	if user != nil {
		return httpx.Redirect(w, "/")
	}
	return registerPage(w, registerParams{}, nil)
}

// RegisterCreate handles POST /register. On success the new user is signed
// in immediately.
func RegisterCreate(env *Env, w http.ResponseWriter, r *http.Request) error {
	var params registerParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}

	problems, err := validateNewUser(env.DB, params)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		w.WriteHeader(http.StatusBadRequest)
		return registerPage(w, params, problems)
	}

	user, err := models.NewUsers(env.DB).Create(params.Username, params.Name, params.Surname, params.Password)
	if err != nil {
		return err
	}
	if err := signIn(env.DB, w, user); err != nil {
		return err
	}
	return httpx.Redirect(w, "/")
}

// validateNewUser checks the registration form. The returned map is keyed by
// field name; empty means valid.
func validateNewUser(db *gorm.DB, params registerParams) (map[string]string, error) {
	problems := make(map[string]string)
	if strings.TrimSpace(params.Name) == "" {
		problems["name"] = "Name must not be empty"
	}
	if strings.TrimSpace(params.Surname) == "" {
		problems["surname"] = "Surname must not be empty"
	}
	if strings.TrimSpace(params.Username) == "" {
		problems["username"] = "Username must not be empty"
	}
	if params.Password == "" {
		problems["password"] = "Password must not be empty"
	}
	if params.Username != "" {
		_, err := models.NewUsers(db).FindByUsername(params.Username)
		switch {
		case err == nil:
			problems["username"] = "Username already taken"
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return problems, nil
}

func registerPage(w http.ResponseWriter, params registerParams, problems map[string]string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	field := func(label, name, typ, value string) string {
		s := `<p><label for="` + name + `">` + label + `</label><input id="` + name + `" type="` + typ + `" name="` + name + `" value="` + html.EscapeString(value) + `">`
		if msg := problems[name]; msg != "" {
			s += `<span>` + html.EscapeString(msg) + `</span>`
		}
		return s + `</p>`
	}
	_, err := io.WriteString(w, `
		<!DOCTYPE html>
		<html>
		<head>
		<meta charset="utf-8">
		<title>Create an account</title>
		</head>
		<body>
		<h1>Create an account</h1>
		<form method="POST" action="/register">
		`+field("Name", "name", "text", params.Name)+`
		`+field("Surname", "surname", "text", params.Surname)+`
		`+field("Username", "username", "text", params.Username)+`
		`+field("Password", "password", "password", "")+`
		<p><button type="submit">Register</button></p>
		</form>
		</body>
		</html>
	`)
	return err
}
