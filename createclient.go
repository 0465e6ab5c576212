package main

import (
	"fmt"

	"github.com/lumon/idp/internal/crypto"
	"github.com/lumon/idp/models"
	"gorm.io/gorm"
)

type CreateClientCmd struct {
	Name        string `required:"" help:"name of the client to register"`
	Description string `help:"description shown on the consent page"`
	RedirectURI string `required:"" help:"redirect URI of the client, matched exactly"`
}

func (c *CreateClientCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}

	secret, err := crypto.Token(44)
	if err != nil {
		return err
	}
	client, err := models.NewClients(db).Create(c.Name, c.Description, c.RedirectURI, secret)
	if err != nil {
		return err
	}

	// the secret is stored hashed; this is the only time it is visible
	fmt.Println("client_id:", client.ID)
	fmt.Println("client_secret:", secret)
	return nil
}
