package oauth2

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lumon/idp/internal/httpx"
	"github.com/lumon/idp/models"
	"github.com/stretchr/testify/require"
)

func authorizeQuery(client *models.Client, challenge, state string) url.Values {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", client.ID.String())
	q.Set("redirect_uri", client.RedirectURI)
	q.Set("scope", "openid")
	if state != "" {
		q.Set("state", state)
	}
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	return q
}

// location parses the Location header of a recorded redirect.
func location(t *testing.T, w *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	require := require.New(t)
	require.Equal(http.StatusFound, w.Code)
	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(err)
	return u
}

func TestAuthorizeNew(t *testing.T) {
	db := setupTestDB(t)

	t.Run("unknown client goes to the error page, never the redirect_uri", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/authorize?client_id=a17d060f-607a-47eb-9113-0f6402dcf089&redirect_uri=https://evil.example/", nil)
		require.NoError(AuthorizeNew(testEnv(tx), w, r))

		u := location(t, w)
		require.Equal("/error", u.Path)
	})

	t.Run("missing parameters still go to the error page", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/authorize", nil)
		require.NoError(AuthorizeNew(testEnv(tx), w, r))
		require.Equal("/error", location(t, w).Path)
	})

	t.Run("mismatched redirect_uri goes to the error page", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		client, _ := mockClient(t, tx, "kier", "https://kier.example/callback")
		q := authorizeQuery(client, challengeFor(randomVerifier(t)), "xyzzy")
		q.Set("redirect_uri", "https://kier.example/other")

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/authorize?"+q.Encode(), nil)
		require.NoError(AuthorizeNew(testEnv(tx), w, r))
		require.Equal("/error", location(t, w).Path)
	})

	t.Run("parameter errors are delivered on the verified redirect_uri", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(q url.Values)
			errC   string
		}{
			{"response_type token", func(q url.Values) { q.Set("response_type", "token") }, "unsupported_response_type"},
			{"response_type garbage", func(q url.Values) { q.Set("response_type", "owo") }, "invalid_request"},
			{"response_type missing", func(q url.Values) { q.Del("response_type") }, "invalid_request"},
			{"response_type duplicated", func(q url.Values) { q.Add("response_type", "code") }, "invalid_request"},
			{"scope missing", func(q url.Values) { q.Del("scope") }, "invalid_request"},
			{"scope wrong", func(q url.Values) { q.Set("scope", "email") }, "invalid_scope"},
			{"code_challenge missing", func(q url.Values) { q.Del("code_challenge") }, "invalid_request"},
			{"code_challenge empty", func(q url.Values) { q.Set("code_challenge", "") }, "invalid_request"},
			{"code_challenge duplicated", func(q url.Values) { q.Add("code_challenge", "again") }, "invalid_request"},
			{"method plain", func(q url.Values) { q.Set("code_challenge_method", "plain") }, "invalid_request"},
			{"method missing", func(q url.Values) { q.Del("code_challenge_method") }, "invalid_request"},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				require := require.New(t)
				tx := db.Begin()
				defer tx.Rollback()

				client, _ := mockClient(t, tx, "kier", "https://kier.example/callback")
				q := authorizeQuery(client, challengeFor(randomVerifier(t)), "xyzzy")
				tt.mutate(q)

				w := httptest.NewRecorder()
				r := httptest.NewRequest("GET", "/authorize?"+q.Encode(), nil)
				require.NoError(AuthorizeNew(testEnv(tx), w, r))

				u := location(t, w)
				require.Equal("kier.example", u.Host)
				require.Equal(tt.errC, u.Query().Get("error"))
				require.Equal("xyzzy", u.Query().Get("state"))
			})
		}
	})

	t.Run("anonymous user is sent to login with the query preserved", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		client, _ := mockClient(t, tx, "kier", "https://kier.example/callback")
		q := authorizeQuery(client, challengeFor(randomVerifier(t)), "xyzzy")

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/authorize?"+q.Encode(), nil)
		require.NoError(AuthorizeNew(testEnv(tx), w, r))

		u := location(t, w)
		require.Equal("/login", u.Path)
		require.Equal(q.Encode(), u.RawQuery)
	})

	t.Run("signed in user sees the consent page", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		client, _ := mockClient(t, tx, "kier", "https://kier.example/callback")
		user := mockUser(t, tx, "marks")
		q := authorizeQuery(client, challengeFor(randomVerifier(t)), "xyzzy")

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/authorize?"+q.Encode(), nil)
		r.AddCookie(sessionCookie(t, tx, user))
		require.NoError(AuthorizeNew(testEnv(tx), w, r))

		require.Equal(http.StatusOK, w.Code)
		require.Contains(w.Body.String(), "&quot;kier&quot; wants to access your user data")
		require.Contains(w.Body.String(), "Approve")
	})
}

func TestAuthorizeCreate(t *testing.T) {
	db := setupTestDB(t)

	decide := func(t *testing.T, env *Env, query url.Values, cookie *http.Cookie, decision string) (*httptest.ResponseRecorder, error) {
		t.Helper()
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/authorize?"+query.Encode(), strings.NewReader("decision="+decision))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != nil {
			r.AddCookie(cookie)
		}
		return w, AuthorizeCreate(env, w, r)
	}

	t.Run("no session is forbidden before anything else", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		_, err := decide(t, testEnv(tx), url.Values{}, nil, "approve")
		se := new(httpx.StatusError)
		require.True(errors.As(err, &se))
		require.Equal(http.StatusForbidden, se.Status())
	})

	t.Run("approval issues a code bound to the request", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		client, _ := mockClient(t, tx, "kier", "https://kier.example/callback")
		user := mockUser(t, tx, "marks")
		challenge := challengeFor(randomVerifier(t))
		q := authorizeQuery(client, challenge, "xyzzy")

		w, err := decide(t, testEnv(tx), q, sessionCookie(t, tx, user), "approve")
		require.NoError(err)

		u := location(t, w)
		require.Equal("kier.example", u.Host)
		require.Equal("xyzzy", u.Query().Get("state"))
		code := u.Query().Get("code")
		require.Greater(len(code), 10)

		token, err := models.NewAuthorizationTokens(tx).FindByCode(code)
		require.NoError(err)
		require.Equal(client.ID, token.ClientID)
		require.Equal(user.ID, token.UserID)
		require.Equal(challenge, token.CodeChallenge)
		require.Equal("S256", token.CodeChallengeMethod)
	})

	t.Run("denial reports access_denied", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		client, _ := mockClient(t, tx, "kier", "https://kier.example/callback")
		user := mockUser(t, tx, "marks")
		q := authorizeQuery(client, challengeFor(randomVerifier(t)), "xyzzy")

		w, err := decide(t, testEnv(tx), q, sessionCookie(t, tx, user), "deny")
		require.NoError(err)

		u := location(t, w)
		require.Equal("access_denied", u.Query().Get("error"))
		require.Equal("xyzzy", u.Query().Get("state"))
		require.Empty(u.Query().Get("code"))
	})

	t.Run("tampered query string is re-validated", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		client, _ := mockClient(t, tx, "kier", "https://kier.example/callback")
		user := mockUser(t, tx, "marks")
		q := authorizeQuery(client, challengeFor(randomVerifier(t)), "xyzzy")
		q.Set("scope", "everything")

		w, err := decide(t, testEnv(tx), q, sessionCookie(t, tx, user), "approve")
		require.NoError(err)

		u := location(t, w)
		require.Equal("invalid_scope", u.Query().Get("error"))
		require.Empty(u.Query().Get("code"))
	})

	t.Run("tampered client goes to the error page", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		client, _ := mockClient(t, tx, "kier", "https://kier.example/callback")
		user := mockUser(t, tx, "marks")
		q := authorizeQuery(client, challengeFor(randomVerifier(t)), "xyzzy")
		q.Set("client_id", "a17d060f-607a-47eb-9113-0f6402dcf089")

		w, err := decide(t, testEnv(tx), q, sessionCookie(t, tx, user), "approve")
		require.NoError(err)
		require.Equal("/error", location(t, w).Path)
	})
}
