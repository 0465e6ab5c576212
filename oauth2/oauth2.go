// Package oauth2 implements the OAuth2 Authorization Code flow with PKCE
// (RFC 6749 + RFC 7636): the /authorize consent flow, the /token exchange,
// and the /userinfo resource endpoint.
package oauth2

import (
	"github.com/lumon/idp/models"
)

type Env struct {
	*models.Env
}

// RFC 6749 §4.1.2.1 and §5.2 error codes, plus invalid_token from RFC 6750.
const (
	errInvalidRequest          = "invalid_request"
	errInvalidClient           = "invalid_client"
	errInvalidGrant            = "invalid_grant"
	errUnauthorizedClient      = "unauthorized_client"
	errUnsupportedGrantType    = "unsupported_grant_type"
	errUnsupportedResponseType = "unsupported_response_type"
	errInvalidScope            = "invalid_scope"
	errAccessDenied            = "access_denied"
	errInvalidToken            = "invalid_token"
)
