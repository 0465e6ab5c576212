package oauth2

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"github.com/lumon/idp/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ExtractClientCredentials parses an RFC 2617 Basic authentication header
// into a client id and secret. Any deviation from the expected shape (wrong
// scheme, missing space, no colon separated pair, empty id or secret) yields
// the empty pair; callers treat empty as unauthenticated.
func ExtractClientCredentials(header string) (clientID, clientSecret string) {
	scheme, encoded, ok := strings.Cut(header, " ")
	if !ok || scheme != "Basic" {
		return "", ""
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ""
	}
	id, secret, ok := strings.Cut(string(decoded), ":")
	if !ok || id == "" || secret == "" {
		return "", ""
	}
	return id, secret
}

// AuthenticateClient resolves the client named by the credentials and
// verifies the secret against the stored bcrypt hash. An unknown client and
// a wrong secret are deliberately indistinguishable, so client ids cannot be
// enumerated through the token endpoint.
func AuthenticateClient(db *gorm.DB, clientID, clientSecret string) (*models.Client, bool) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return nil, false
	}
	client, err := models.NewClients(db).Find(id)
	if err != nil {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(client.EncryptedSecret, []byte(clientSecret)) != nil {
		return nil, false
	}
	return client, true
}

// RedirectURIMatches reports whether redirectURI exactly matches the client's
// registered URI. No pattern or prefix matching, string equality only. The
// caller must have already established that the client exists; an unknown id
// here propagates as an error, not a mismatch.
func RedirectURIMatches(db *gorm.DB, clientID uuid.UUID, redirectURI string) (bool, error) {
	client, err := models.NewClients(db).Find(clientID)
	if err != nil {
		return false, err
	}
	return client.RedirectURI == redirectURI, nil
}
