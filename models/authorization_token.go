package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lumon/idp/internal/crypto"
	"gorm.io/gorm"
)

// authorizationTokenTTL is the lifetime of an authorization code. Codes are
// meant to be exchanged immediately, so the window is deliberately short.
const authorizationTokenTTL = 120 * time.Second

// An AuthorizationToken is an authorization code issued at consent time.
// It belongs to a Client and a User, and is exchanged exactly once for an
// AccessToken. It is never updated after creation except the Revoked flag.
type AuthorizationToken struct {
	ID                  uint   `gorm:"primarykey"`
	Value               string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt           time.Time
	Scope               string    `gorm:"size:64;not null"`
	ClientID            uuid.UUID `gorm:"type:char(36);not null"`
	Client              *Client   `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	UserID              uuid.UUID `gorm:"type:char(36);not null"`
	User                *User     `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	CodeChallenge       string    `gorm:"size:128;not null"`
	CodeChallengeMethod string    `gorm:"size:8;not null"`
	Revoked             bool      `gorm:"not null;default:false"`
}

// Expired reports whether the code is outside its exchange window. A code
// whose creation time is in the future is treated as expired rather than
// surfacing a distinct clock skew error.
func (t *AuthorizationToken) Expired() bool {
	now := time.Now()
	if now.Before(t.CreatedAt) {
		return true
	}
	return now.Sub(t.CreatedAt) > authorizationTokenTTL
}

type AuthorizationTokens struct {
	db *gorm.DB
}

func NewAuthorizationTokens(db *gorm.DB) *AuthorizationTokens {
	return &AuthorizationTokens{db: db}
}

// Create issues a new authorization code for the client and user and returns
// its value. The value is the code delivered to the client on the consent
// redirect.
func (a *AuthorizationTokens) Create(client *Client, user *User, scope, codeChallenge, codeChallengeMethod string) (string, error) {
	if scope == "" {
		scope = "openid"
	}
	if codeChallengeMethod == "" {
		codeChallengeMethod = "S256"
	}
	value, err := crypto.Token(crypto.TokenLength)
	if err != nil {
		return "", err
	}
	token := &AuthorizationToken{
		Value:               value,
		Scope:               scope,
		ClientID:            client.ID,
		UserID:              user.ID,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
	}
	if err := a.db.Create(token).Error; err != nil {
		return "", err
	}
	return value, nil
}

func (a *AuthorizationTokens) FindByCode(code string) (*AuthorizationToken, error) {
	var token AuthorizationToken
	if err := a.db.First(&token, "value = ?", code).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke marks the code as revoked. Revoking an already revoked code is a
// no-op; revoking an unknown code is not an error.
func (a *AuthorizationTokens) Revoke(code string) error {
	return a.db.Model(&AuthorizationToken{}).Where("value = ?", code).Update("revoked", true).Error
}
