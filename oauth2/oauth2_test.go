package oauth2

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/lumon/idp/internal/crypto"
	"github.com/lumon/idp/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
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

	err = db.AutoMigrate(models.AllTables()...)
	require.NoError(err)

	// enable foreign key constraints
	err = db.Exec("PRAGMA foreign_keys = ON").Error
	require.NoError(err)

	return db
}

func testEnv(tx *gorm.DB) *Env {
	return &Env{Env: &models.Env{DB: tx, Logger: slog.Default()}}
}

func mockClient(t *testing.T, tx *gorm.DB, name, redirectURI string) (*models.Client, string) {
	t.Helper()
	require := require.New(t)

	secret := "eqCwSoGkm2Uo0WgzjyKGJSrHHApYuljEv1ceEBeMoF8d"
	client, err := models.NewClients(tx).Create(name, "a test client", redirectURI, secret)
	require.NoError(err)
	return client, secret
}

func mockUser(t *testing.T, tx *gorm.DB, username string) *models.User {
	t.Helper()
	require := require.New(t)

	user, err := models.NewUsers(tx).Create(username, "Mark", "Scout", "hunter2")
	require.NoError(err)
	return user
}

// sessionCookie signs the user in and returns the cookie the browser would
// carry.
func sessionCookie(t *testing.T, tx *gorm.DB, user *models.User) *http.Cookie {
	t.Helper()
	require := require.New(t)

	session, err := models.NewSessions(tx).Create(user)
	require.NoError(err)
	return &http.Cookie{Name: "session", Value: session.ID.String()}
}

func randomVerifier(t *testing.T) string {
	t.Helper()
	v, err := crypto.Token(crypto.TokenLength)
	require.NoError(t, err)
	return v
}

func challengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
