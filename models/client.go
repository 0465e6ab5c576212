package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// A Client is a registered OAuth2 client application.
// Clients are registered out of band; there is no self service registration.
type Client struct {
	ID              uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt       time.Time
	Name            string `gorm:"size:255;not null"`
	Description     string `gorm:"size:255;not null;default:''"`
	RedirectURI     string `gorm:"size:255;not null"`
	EncryptedSecret []byte `gorm:"size:60;not null"`
}

type Clients struct {
	db *gorm.DB
}

func NewClients(db *gorm.DB) *Clients {
	return &Clients{db: db}
}

// Create registers a new client. The secret is stored as a bcrypt hash; the
// plaintext is never persisted.
func (c *Clients) Create(name, description, redirectURI, secret string) (*Client, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	client := &Client{
		ID:              uuid.New(),
		Name:            name,
		Description:     description,
		RedirectURI:     redirectURI,
		EncryptedSecret: hash,
	}
	if err := c.db.Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Clients) Find(id uuid.UUID) (*Client, error) {
	var client Client
	if err := c.db.First(&client, "id = ?", id.String()).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// Exists reports whether a client with the given id is registered. A missing,
// empty, or non UUID id is reported as absent without touching the database.
func (c *Clients) Exists(id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var count int64
	if err := c.db.Model(&Client{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
