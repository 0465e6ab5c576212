package main

import (
	"github.com/alecthomas/kong"
	"gorm.io/gorm"
)

type Context struct {
	Debug bool

	gorm.Config
	Dialector gorm.Dialector
}

var cli struct {
	Debug bool   `help:"Enable debug mode."`
	DSN   string `required:"" help:"data source name of the database"`

	Serve        ServeCmd        `cmd:"" help:"Serve the authorization server."`
	AutoMigrate  AutoMigrateCmd  `cmd:"" help:"Create or update the database schema."`
	CreateClient CreateClientCmd `cmd:"" help:"Register an OAuth2 client."`
	CreateUser   CreateUserCmd   `cmd:"" help:"Create a user."`
	HouseKeeping HouseKeepingCmd `cmd:"" help:"Delete expired and revoked tokens."`
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&Context{
		Debug:     cli.Debug,
		Dialector: newDialector(cli.DSN),
		Config: gorm.Config{
			// surface duplicate key violations as gorm.ErrDuplicatedKey
			TranslateError: true,
		},
	})
	ctx.FatalIfErrorf(err)
}
