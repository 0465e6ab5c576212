package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// A User is a resource owner with a browser login.
// The OAuth2 engine only reads id, username, first name and last name to
// populate claims; everything else belongs to the authentication subsystem.
type User struct {
	ID                uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt         time.Time
	Username          string `gorm:"size:64;uniqueIndex;not null"`
	FirstName         string `gorm:"size:64;not null"`
	LastName          string `gorm:"size:64;not null"`
	EncryptedPassword []byte `gorm:"size:60;not null"`
}

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (u *Users) Create(username, firstName, lastName, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:                uuid.New(),
		Username:          username,
		FirstName:         firstName,
		LastName:          lastName,
		EncryptedPassword: hash,
	}
	if err := u.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (u *Users) Find(id uuid.UUID) (*User, error) {
	var user User
	if err := u.db.First(&user, "id = ?", id.String()).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *Users) FindByUsername(username string) (*User, error) {
	var user User
	if err := u.db.First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
