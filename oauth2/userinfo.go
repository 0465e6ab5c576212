package oauth2

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/lumon/idp/internal/to"
	"github.com/lumon/idp/models"
	"gorm.io/gorm"
)

// ExtractBearerToken recovers the raw access token from an Authorization
// header of the form "Bearer <base64(token)>". Any other shape (missing
// prefix, bare "Bearer", undecodable payload) yields the empty string, which
// no stored token can ever equal.
func ExtractBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return ""
	}
	return string(decoded)
}

// UserInfoShow handles POST /userinfo: validate the bearer token and return
// the claims of the user it was issued for.
func UserInfoShow(env *Env, w http.ResponseWriter, r *http.Request) error {
	header := r.Header.Get("Authorization")
	if header == "" {
		w.Header().Set("WWW-Authenticate", "Bearer")
		w.WriteHeader(http.StatusUnauthorized)
		return nil
	}

	token, err := models.NewAccessTokens(env.DB).FindByValue(ExtractBearerToken(header))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if token == nil || token.Expired() {
		w.Header().Set("WWW-Authenticate", "Bearer")
		return to.JSONStatus(w, http.StatusUnauthorized, map[string]string{"error": errInvalidToken})
	}

	user, err := models.NewUsers(env.DB).Find(token.UserID)
	if err != nil {
		// a live token referencing a missing user is an invariant violation
		return err
	}

	var claims = struct {
		Sub               string `json:"sub"`
		PreferredUsername string `json:"preferred_username"`
		GivenName         string `json:"given_name"`
		FamilyName        string `json:"family_name"`
	}{
		Sub:               user.ID.String(),
		PreferredUsername: user.Username,
		GivenName:         user.FirstName,
		FamilyName:        user.LastName,
	}
	return to.JSON(w, claims)
}
