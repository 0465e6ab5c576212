// Package models contains the database models and their repositories.
package models

// AllTables returns a slice of all tables in the database, suitable for
// passing to gorm's AutoMigrate.
func AllTables() []any {
	return []any{
		&Client{},
		&User{},
		&Session{},
		&AuthorizationToken{},
		&AccessToken{},
	}
}
