package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/storage/postgres/v2"

	"medisync/internal/config"
	"medisync/internal/database"
	"medisync/internal/handlers"
	"medisync/internal/platform/account"
	"medisync/internal/platform/auth"
	"medisync/internal/platform/recovery"
	"medisync/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	credentials := database.NewCredentialStore(db)
	identities := database.NewIdentityStore(db)
	tokens := database.NewRecoveryTokenStore(db)

	accounts := account.NewService(credentials, identities)

	sessionStorage := postgres.New(postgres.Config{
		ConnectionURI: cfg.DatabaseURL,
		Table:         "account_session",
	})

	services := &handlers.Services{
		Accounts: accounts,
		Auth:     auth.NewService(accounts, credentials),
		Recovery: recovery.NewService(accounts, credentials, tokens),
		Sessions: session.NewManager(sessionStorage),
	}

	app := fiber.New()

	app.Use(compress.New())
	app.Use(helmet.New())
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(healthcheck.New())
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: cfg.SessionSecret,
	}))

	handlers.Register(app, services)

	log.Fatal(app.Listen(fmt.Sprintf(":%d", cfg.ServerPort)))
}
