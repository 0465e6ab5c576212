package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lumon/idp/internal/crypto"
	"gorm.io/gorm"
)

// accessTokenTTL is the lifetime of an access token in seconds.
const accessTokenTTL = 86400

var (
	// ErrAuthorizationCodeNotFound is returned when an operation names an
	// authorization code that does not exist.
	ErrAuthorizationCodeNotFound = errors.New("authorization code not found")

	// ErrCodeAlreadyExchanged is returned when a second access token is
	// requested for an authorization code that has already been redeemed.
	ErrCodeAlreadyExchanged = errors.New("authorization code already has an access token")
)

// An AccessToken is a bearer token issued by redeeming an authorization code.
// At most one AccessToken may ever exist per AuthorizationToken; the unique
// index on AuthorizationTokenID enforces this against concurrent redemptions.
type AccessToken struct {
	ID                   uint   `gorm:"primarykey"`
	Value                string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt            time.Time
	ExpiresIn            int       `gorm:"not null"`
	Scope                string    `gorm:"size:64;not null"`
	ClientID             uuid.UUID `gorm:"type:char(36);not null"`
	Client               *Client   `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	UserID               uuid.UUID `gorm:"type:char(36);not null"`
	User                 *User     `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	AuthorizationTokenID uint      `gorm:"uniqueIndex;not null"`
	AuthorizationToken   *AuthorizationToken `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
}

// Expired reports whether the token's lifetime has elapsed. A token is
// expired at, not after, createdAt+expiresIn.
func (t *AccessToken) Expired() bool {
	return !time.Now().Before(t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second))
}

type AccessTokens struct {
	db *gorm.DB
}

func NewAccessTokens(db *gorm.DB) *AccessTokens {
	return &AccessTokens{db: db}
}

// Create redeems an authorization code for a new access token. It returns
// ErrAuthorizationCodeNotFound if the code does not exist, and
// ErrCodeAlreadyExchanged if an access token has already been issued for it.
// The existence check and the insert run in one transaction, and the unique
// index on authorization_token_id backstops the check, so of two concurrent
// redemptions at most one can succeed.
func (a *AccessTokens) Create(code string) (*AccessToken, error) {
	value, err := crypto.Token(crypto.TokenLength)
	if err != nil {
		return nil, err
	}
	var token *AccessToken
	err = a.db.Transaction(func(tx *gorm.DB) error {
		auth, err := NewAuthorizationTokens(tx).FindByCode(code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAuthorizationCodeNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&AccessToken{}).Where("authorization_token_id = ?", auth.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCodeAlreadyExchanged
		}

		token = &AccessToken{
			Value:                value,
			ExpiresIn:            accessTokenTTL,
			Scope:                auth.Scope,
			ClientID:             auth.ClientID,
			UserID:               auth.UserID,
			AuthorizationTokenID: auth.ID,
		}
		if err := tx.Create(token).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// lost a race with a concurrent redemption
				return ErrCodeAlreadyExchanged
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (a *AccessTokens) FindByValue(value string) (*AccessToken, error) {
	var token AccessToken
	if err := a.db.First(&token, "value = ?", value).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeForCode invalidates both artifacts tied to an authorization code: the
// code is marked revoked and any access token issued for it is deleted. This
// is the replay defence; it returns ErrAuthorizationCodeNotFound when the
// code is unknown so the caller can decide how loudly to complain.
func (a *AccessTokens) RevokeForCode(code string) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		auth, err := NewAuthorizationTokens(tx).FindByCode(code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAuthorizationCodeNotFound
			}
			return err
		}
		if err := NewAuthorizationTokens(tx).Revoke(code); err != nil {
			return err
		}
		return tx.Delete(&AccessToken{}, "authorization_token_id = ?", auth.ID).Error
	})
}
