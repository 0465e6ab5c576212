package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// A Session is a browser login session.
// A Session belongs to a User. The session id is the cookie value.
type Session struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UserID    uuid.UUID `gorm:"type:char(36);not null"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
}

type Sessions struct {
	db *gorm.DB
}

func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{db: db}
}

func (s *Sessions) Create(user *User) (*Session, error) {
	session := &Session{
		ID:     uuid.New(),
		UserID: user.ID,
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindUser resolves a session id to its user. A malformed id is treated the
// same as an unknown one.
func (s *Sessions) FindUser(id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var session Session
	if err := s.db.Joins("User").First(&session, "sessions.id = ?", id).Error; err != nil {
		return nil, err
	}
	return session.User, nil
}

func (s *Sessions) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return s.db.Delete(&Session{}, "id = ?", id).Error
}
