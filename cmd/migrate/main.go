package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tradesenseai/challenge-platform/internal/account"
	"github.com/tradesenseai/challenge-platform/internal/auth"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/postgres"
)

const (
	_schemaFilePath = "./migrations/schema.sql"

	_demoEmail    = "demo@tradesense.ai"
	_demoPassword = "demo-password"
	_demoBalance  = 5000.0
)

func main() {
	seed := flag.Bool("seed", false, "insert a demo user and challenge account")
	flag.Parse()

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.LevelFromEnv())
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pgConfig := postgres.NewConfigFromEnv().Setup()
	zapLogger.Debugf("trying to connect to db with: %s", pgConfig)
	db, err := postgres.NewDB(pgConfig)
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to db", err)
	}
	defer db.Close()

	schema, err := os.ReadFile(_schemaFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't read schema file", err)
	}

	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		zapLogger.Fatalf("%s: can't apply schema", err)
	}
	zapLogger.Infof("schema applied")

	if !*seed {
		return
	}

	store := account.NewStore(db, zapLogger)
	authService := auth.NewService(uuid.NewString(), time.Hour)

	hash, err := authService.HashPassword(_demoPassword)
	if err != nil {
		zapLogger.Fatalf("%s: can't hash demo password", err)
	}

	user, err := store.CreateUser(ctx, _demoEmail, hash)
	if err != nil {
		zapLogger.Fatalf("%s: can't create demo user", err)
	}

	acc, err := store.Create(ctx, user.ID, _demoBalance)
	if err != nil {
		zapLogger.Fatalf("%s: can't create demo account", err)
	}

	zapLogger.Infof("seeded demo user %s with account %s", user.Email, acc.ID)
}
