package main

import (
	"fmt"
	"time"

	"github.com/lumon/idp/models"
	"gorm.io/gorm"
)

type HouseKeepingCmd struct {
}

// Run deletes token rows that can no longer validate. Expiry is enforced by
// timestamp comparison at read time, so this is purely hygiene and can run
// whenever the operator feels like it.
func (c *HouseKeepingCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		// access tokens always carry a 24 hour lifetime
		res := tx.Where("created_at <= ?", time.Now().Add(-24*time.Hour)).Delete(&models.AccessToken{})
		if res.Error != nil {
			return res.Error
		}
		fmt.Println("deleted", res.RowsAffected, "expired access tokens")

		// authorization codes outlive their 120 second window only while a
		// live access token still references them
		res = tx.Where(
			"(revoked OR created_at <= ?) AND id NOT IN (SELECT authorization_token_id FROM access_tokens)",
			time.Now().Add(-120*time.Second),
		).Delete(&models.AuthorizationToken{})
		if res.Error != nil {
			return res.Error
		}
		fmt.Println("deleted", res.RowsAffected, "spent authorization codes")

		return nil
	})
}
