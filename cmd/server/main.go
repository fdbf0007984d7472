package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/onform/training-backend/internal/access"
	"github.com/onform/training-backend/internal/config"
	"github.com/onform/training-backend/internal/database"
	"github.com/onform/training-backend/internal/handler"
	"github.com/onform/training-backend/internal/queue"
	"github.com/onform/training-backend/internal/repository"
	"github.com/onform/training-backend/internal/router"
	"github.com/onform/training-backend/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the auth rate limiter. A nil client disables limiting
	// rather than blocking startup.
	rlCfg := config.LoadRateLimitConfig()
	rdb := config.NewRedisClient()

	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	trainers := repository.NewTrainerRepo(db)
	clients := repository.NewClientRepo(db)
	roster := repository.NewRosterRepo(db)
	guard := access.NewGuard(accounts, trainers, clients, roster)

	authHandler := handler.NewAuthHandler(cfg, accounts, tokens)
	trainerHandler := handler.NewTrainerHandler(trainers, roster, guard)
	clientHandler := handler.NewClientHandler(clients, trainers, roster, guard)

	// Outbound email is consumed from the queue in the background; the
	// loop reconnects on broker failure.
	go queue.StartMailConsumer(service.NewMailSenderFromEnv())

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg, rlCfg, rdb, accounts)
	router.RegisterProfiles(e, trainerHandler, clientHandler, cfg, accounts)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
