package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"

	"github.com/lumon/idp/auth"
	"github.com/lumon/idp/internal/httpx"
	"github.com/lumon/idp/models"
	"github.com/lumon/idp/oauth2"
)

type ServeCmd struct {
	Addr string `help:"address to listen" default:"127.0.0.1:9090"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := configureDB(db); err != nil {
		return err
	}

	env := &models.Env{
		DB:     db,
		Logger: slog.Default(),
	}
	authEnv := func(r *http.Request) *auth.Env { return &auth.Env{Env: env} }
	oauthEnv := func(r *http.Request) *oauth2.Env { return &oauth2.Env{Env: env} }

	c := chi.NewRouter()
	c.Use(middleware.RequestID)
	c.Use(middleware.RealIP)
	c.Use(middleware.Logger)
	c.Use(middleware.Recoverer)

	c.Get("/", httpx.HandlerFunc(authEnv, auth.HomeShow))
	c.Get("/login", httpx.HandlerFunc(authEnv, auth.LoginNew))
	c.Post("/login", httpx.HandlerFunc(authEnv, auth.LoginCreate))
	c.Get("/logout", httpx.HandlerFunc(authEnv, auth.Logout))
	c.Get("/register", httpx.HandlerFunc(authEnv, auth.RegisterNew))
	c.Post("/register", httpx.HandlerFunc(authEnv, auth.RegisterCreate))
	c.Get("/error", httpx.HandlerFunc(authEnv, auth.ErrorShow))

	c.Get("/authorize", httpx.HandlerFunc(oauthEnv, oauth2.AuthorizeNew))
	c.Post("/authorize", httpx.HandlerFunc(oauthEnv, oauth2.AuthorizeCreate))

	c.Route("/api/v1", func(r chi.Router) {
		r.Post("/token", httpx.HandlerFunc(oauthEnv, oauth2.TokenCreate))
		r.Post("/userinfo", httpx.HandlerFunc(oauthEnv, oauth2.UserInfoShow))
	})

	svr := &http.Server{
		Addr:         s.Addr,
		Handler:      c,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return svr.ListenAndServe()
}
