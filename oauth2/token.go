package oauth2

import (
	"errors"
	"net/http"

	"github.com/lumon/idp/internal/to"
	"github.com/lumon/idp/models"
	"gorm.io/gorm"
)

// TokenCreate handles POST /token: authenticate the client, validate the
// grant, verify PKCE, and redeem the authorization code for an access token.
// Validation is ordered and short circuits on the first failure.
func TokenCreate(env *Env, w http.ResponseWriter, r *http.Request) error {
	// RFC 6749 §5.1 requires these on every response from this endpoint,
	// success or failure.
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	clientID, clientSecret := ExtractClientCredentials(r.Header.Get("Authorization"))
	client, ok := AuthenticateClient(env.DB, clientID, clientSecret)
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="Client authentication"`)
		return tokenError(w, http.StatusUnauthorized, errInvalidClient)
	}

	params, ok := parseTokenParams(r)
	if !ok {
		return tokenError(w, http.StatusBadRequest, errInvalidRequest)
	}
	if params.GrantType != "authorization_code" {
		return tokenError(w, http.StatusBadRequest, errUnsupportedGrantType)
	}
	if params.RedirectURI != client.RedirectURI {
		return tokenError(w, http.StatusBadRequest, errInvalidGrant)
	}

	auth, err := models.NewAuthorizationTokens(env.DB).FindByCode(params.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tokenError(w, http.StatusBadRequest, errInvalidGrant)
		}
		return err
	}
	// unknown, foreign, revoked and expired codes all collapse to the same
	// opaque invalid_grant
	if auth.ClientID != client.ID || auth.Revoked || auth.Expired() {
		return tokenError(w, http.StatusBadRequest, errInvalidGrant)
	}

	if !VerifyChallenge(params.CodeVerifier, auth.CodeChallenge) {
		return tokenError(w, http.StatusBadRequest, errInvalidRequest)
	}

	token, err := models.NewAccessTokens(env.DB).Create(params.Code)
	if err != nil {
		if errors.Is(err, models.ErrCodeAlreadyExchanged) {
			// replay of a spent code: invalidate the code and the token it
			// bought, then fail the request
			if err := models.NewAccessTokens(env.DB).RevokeForCode(params.Code); err != nil {
				if !errors.Is(err, models.ErrAuthorizationCodeNotFound) {
					return err
				}
				env.Log().Warn("revocation target missing", "reason", "authorization code vanished before revocation")
			}
			return tokenError(w, http.StatusBadRequest, errInvalidGrant)
		}
		return err
	}

	var res = struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		Scope       string `json:"scope"`
	}{
		AccessToken: token.Value,
		TokenType:   "Bearer",
		ExpiresIn:   token.ExpiresIn,
		Scope:       token.Scope,
	}
	return to.JSON(w, res)
}

type tokenParams struct {
	GrantType    string
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// parseTokenParams decodes the token request body. Each parameter must be
// present, non empty, and supplied exactly once across the body and query
// string; anything else fails the request before the values reach the
// protocol logic.
func parseTokenParams(r *http.Request) (tokenParams, bool) {
	if err := r.ParseForm(); err != nil {
		return tokenParams{}, false
	}
	var p tokenParams
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"grant_type", &p.GrantType},
		{"code", &p.Code},
		{"redirect_uri", &p.RedirectURI},
		{"code_verifier", &p.CodeVerifier},
	} {
		// r.Form merges body and query, so a parameter smuggled into the
		// query string alongside the body counts as duplicated
		vals := r.Form[f.name]
		if len(vals) != 1 || vals[0] == "" {
			return tokenParams{}, false
		}
		*f.dst = vals[0]
	}
	return p, true
}

func tokenError(w http.ResponseWriter, code int, errCode string) error {
	return to.JSONStatus(w, code, map[string]string{"error": errCode})
}
