package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	require.NoError(err)

	err = db.AutoMigrate(AllTables()...)
	require.NoError(err)

	// enable foreign key constraints
	err = db.Exec("PRAGMA foreign_keys = ON").Error
	require.NoError(err)

	return db
}

// MockUser creates a new user in the database.
func MockUser(t *testing.T, tx *gorm.DB, username string) *User {
	t.Helper()
	require := require.New(t)

	user, err := NewUsers(tx).Create(username, "Mark", "Scout", "hunter2")
	require.NoError(err)
	return user
}

// MockClient creates a new client in the database. The plaintext secret is
// returned alongside so callers can authenticate as the client.
func MockClient(t *testing.T, tx *gorm.DB, name, redirectURI string) (*Client, string) {
	t.Helper()
	require := require.New(t)

	secret := "eqCwSoGkm2Uo0WgzjyKGJSrHHApYuljEv1ceEBeMoF8d"
	client, err := NewClients(tx).Create(name, "a test client", redirectURI, secret)
	require.NoError(err)
	require.NoError(bcrypt.CompareHashAndPassword(client.EncryptedSecret, []byte(secret)))
	return client, secret
}

// MockCode issues an authorization code for the client and user and returns
// its value and record.
func MockCode(t *testing.T, tx *gorm.DB, client *Client, user *User, codeChallenge string) (string, *AuthorizationToken) {
	t.Helper()
	require := require.New(t)

	code, err := NewAuthorizationTokens(tx).Create(client, user, "", codeChallenge, "")
	require.NoError(err)
	token, err := NewAuthorizationTokens(tx).FindByCode(code)
	require.NoError(err)
	return code, token
}
