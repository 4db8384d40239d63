// Command provision_admin creates an admin account, or promotes an existing
// account to admin.
//
//	go run ./cmd/scripts <email> <password> <phone>
package main

import (
	"context"
	"os"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/config"
	mongorepo "github.com/ArowuTest/tripledigit-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/tripledigit-backend/internal/services"
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/pkg/logger"
	"github.com/ArowuTest/tripledigit-backend/pkg/mongodb"
)

func main() {
	log := logger.New("info", true)

	if len(os.Args) < 4 {
		log.Fatal().Msg("usage: provision_admin <email> <password> <phone>")
	}
	email, password, phone := os.Args[1], os.Args[2], os.Args[3]

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexes")
	}
	store := mongorepo.NewStore(db)

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.Issuer)
	auth := services.NewAuthService(store.Accounts, tokens, log)

	account, created, err := auth.EnsureAdmin(ctx, email, password, phone)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Failed to provision admin")
	}
	if created {
		log.Info().Str("email", account.Email).Str("id", account.ID.Hex()).Msg("Admin account created")
		return
	}
	log.Info().Str("email", account.Email).Str("id", account.ID.Hex()).Msg("Existing account promoted to admin")
}
