// Package auth implements the session cookie browser login: the login and
// registration pages, logout, and resolution of the signed in user. OAuth2
// handlers resolve the user once at the boundary via CurrentUser and never
// re-derive it mid flow.
package auth

import (
	"errors"
	"net/http"

	"github.com/lumon/idp/models"
	"gorm.io/gorm"
)

type Env struct {
	*models.Env
}

const (
	sessionCookie = "session"
	// sessions last one week
	sessionMaxAge = 604800
)

// CurrentUser resolves the session cookie to a user. A missing, malformed or
// unknown session yields (nil, nil); only a store failure is an error.
func CurrentUser(db *gorm.DB, r *http.Request) (*models.User, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, nil
	}
	user, err := models.NewSessions(db).FindUser(cookie.Value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// signIn creates a session for the user and sets the session cookie.
func signIn(db *gorm.DB, w http.ResponseWriter, user *models.User) error {
	session, err := models.NewSessions(db).Create(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID.String(),
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// signOut deletes the session behind the cookie, if any, and clears the
// cookie.
func signOut(db *gorm.DB, w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := models.NewSessions(db).Delete(cookie.Value); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}
