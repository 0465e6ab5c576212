package oauth2

import (
	"errors"
	"html"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/lumon/idp/auth"
	"github.com/lumon/idp/internal/httpx"
	"github.com/lumon/idp/models"
	"gorm.io/gorm"
)

// AuthorizeNew handles GET /authorize: validate the client, validate the
// request parameters, then send the user to login or to the consent page.
func AuthorizeNew(env *Env, w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	client, ok, err := checkClient(env.DB, query)
	if err != nil {
		return err
	}
	if !ok {
		// the client, and therefore its redirect_uri, is unverified; show
		// the failure to the user rather than forwarding to the redirect_uri.
		return httpx.Redirect(w, "/error?"+r.URL.RawQuery)
	}
	params, errCode := validateAuthorizeParams(query)
	if errCode != "" {
		return redirectError(w, client.RedirectURI, errCode, params.State)
	}
	user, err := auth.CurrentUser(env.DB, r)
	if err != nil {
		return err
	}
	if user == nil {
		// resume the authorization request after login
		return httpx.Redirect(w, "/login?"+r.URL.RawQuery)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = io.WriteString(w, `
		<!DOCTYPE html>
		<html>
		<head>
		<meta charset="utf-8">
		<title>Authorize</title>
		</head>
		<body>
		<h1>&quot;`+html.EscapeString(client.Name)+`&quot; wants to access your user data</h1>
		<p>`+html.EscapeString(client.Description)+`</p>
		<form method="POST" action="/authorize?`+html.EscapeString(r.URL.RawQuery)+`">
		<p>
		<button name="decision" value="approve">Approve</button>
		<button name="decision" value="deny">Deny</button>
		</p>
		</form>
		</body>
		</html>
	`)
	return err
}

// AuthorizeCreate handles POST /authorize, the consent decision. The query
// string is re-validated in full; the GET may have been approved against a
// different query string than the one posted back.
func AuthorizeCreate(env *Env, w http.ResponseWriter, r *http.Request) error {
	user, err := auth.CurrentUser(env.DB, r)
	if err != nil {
		return err
	}
	if user == nil {
		return httpx.Error(http.StatusForbidden, errors.New("sign in required"))
	}
	query := r.URL.Query()
	client, ok, err := checkClient(env.DB, query)
	if err != nil {
		return err
	}
	if !ok {
		return httpx.Redirect(w, "/error?"+r.URL.RawQuery)
	}
	params, errCode := validateAuthorizeParams(query)
	if errCode != "" {
		return redirectError(w, client.RedirectURI, errCode, params.State)
	}

	var form struct {
		Decision string `schema:"decision"`
	}
	if err := httpx.Params(r, &form); err != nil {
		return err
	}
	if form.Decision != "approve" {
		return redirectError(w, client.RedirectURI, errAccessDenied, params.State)
	}

	code, err := models.NewAuthorizationTokens(env.DB).Create(client, user, params.Scope, params.CodeChallenge, params.CodeChallengeMethod)
	if err != nil {
		return err
	}
	success := map[string]string{"code": code}
	if params.State != "" {
		success["state"] = params.State
	}
	return redirectTo(w, client.RedirectURI, success)
}

// checkClient runs the untrusted phase of /authorize validation: client_id
// must name a registered client and redirect_uri must match its registration,
// each supplied exactly once. Until both hold nothing may be sent to the
// redirect_uri.
func checkClient(db *gorm.DB, query url.Values) (*models.Client, bool, error) {
	ids := query["client_id"]
	if len(ids) != 1 {
		return nil, false, nil
	}
	exists, err := models.NewClients(db).Exists(ids[0])
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	id, err := uuid.Parse(ids[0])
	if err != nil {
		return nil, false, nil
	}
	uris := query["redirect_uri"]
	if len(uris) != 1 {
		return nil, false, nil
	}
	ok, err := RedirectURIMatches(db, id, uris[0])
	if err != nil || !ok {
		return nil, false, err
	}
	client, err := models.NewClients(db).Find(id)
	if err != nil {
		return nil, false, err
	}
	return client, true, nil
}

type authorizeParams struct {
	ResponseType        string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// validateAuthorizeParams checks the remaining /authorize parameters in a
// fixed order, first failure wins. Each parameter must be supplied exactly
// once; a duplicated or array valued parameter is an invalid_request before
// its value is ever considered. Returns the empty string when valid.
func validateAuthorizeParams(query url.Values) (authorizeParams, string) {
	var p authorizeParams
	// state is optional, but it is echoed on error redirects, so capture it
	// before any check can fail.
	p.State = query.Get("state")

	responseType := query["response_type"]
	if len(responseType) != 1 {
		return p, errInvalidRequest
	}
	switch responseType[0] {
	case "code":
		p.ResponseType = responseType[0]
	case "token":
		// recognised by RFC 6749, not supported here
		return p, errUnsupportedResponseType
	default:
		return p, errInvalidRequest
	}

	scope := query["scope"]
	if len(scope) != 1 {
		return p, errInvalidRequest
	}
	if scope[0] != "openid" {
		return p, errInvalidScope
	}
	p.Scope = scope[0]

	codeChallenge := query["code_challenge"]
	if len(codeChallenge) != 1 || codeChallenge[0] == "" {
		return p, errInvalidRequest
	}
	p.CodeChallenge = codeChallenge[0]

	method := query["code_challenge_method"]
	if len(method) != 1 || method[0] != "S256" {
		return p, errInvalidRequest
	}
	p.CodeChallengeMethod = method[0]

	return p, ""
}

// redirectError delivers an error to the client by appending it to the
// verified redirect_uri, echoing state when the client supplied one.
func redirectError(w http.ResponseWriter, redirectURI, errCode, state string) error {
	params := map[string]string{"error": errCode}
	if state != "" {
		params["state"] = state
	}
	return redirectTo(w, redirectURI, params)
}

func redirectTo(w http.ResponseWriter, redirectURI string, params map[string]string) error {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// registered URIs are assumed well formed; this is an invariant
		// violation, not a protocol error
		return err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return httpx.Redirect(w, u.String())
}
