package main

import (
	"fmt"

	"github.com/lumon/idp/models"
	"gorm.io/gorm"
)

type CreateUserCmd struct {
	Username  string `required:"" help:"username of the user to create"`
	FirstName string `required:"" help:"first name of the user to create"`
	LastName  string `required:"" help:"last name of the user to create"`
	Password  string `required:"" help:"password of the user to create"`
}

func (c *CreateUserCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	user, err := models.NewUsers(db).Create(c.Username, c.FirstName, c.LastName, c.Password)
	if err != nil {
		return err
	}
	fmt.Println("created user", user.Username, "with id", user.ID)
	return nil
}
