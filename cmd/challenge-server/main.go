package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tradesenseai/challenge-platform/internal/account"
	"github.com/tradesenseai/challenge-platform/internal/api"
	"github.com/tradesenseai/challenge-platform/internal/auth"
	"github.com/tradesenseai/challenge-platform/internal/challenge"
	"github.com/tradesenseai/challenge-platform/internal/config"
	"github.com/tradesenseai/challenge-platform/internal/feed"
	"github.com/tradesenseai/challenge-platform/internal/leaderboard"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/postgres"
	"github.com/tradesenseai/challenge-platform/internal/server"
	"github.com/tradesenseai/challenge-platform/internal/trade"
)

const (
	_serverCfgFilePath = "./configs/server.yaml"
)

func main() {
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

	cfg, err := config.LoadServerConfig(_serverCfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load server cfg", err)
	}

	pgConfig := postgres.NewConfigFromEnv().Setup()
	zapLogger.Debugf("trying to connect to db with: %s", pgConfig)
	db, err := postgres.NewDB(pgConfig)
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to db", err)
	}
	defer db.Close()

	accountStore := account.NewStore(db, zapLogger)
	tradeStore := trade.NewStore(db, zapLogger)

	quoteService := feed.NewQuoteService(cfg.Feed, zapLogger)
	engine := challenge.NewEngine(accountStore, zapLogger)
	tradeService := trade.NewService(accountStore, tradeStore, engine, quoteService, cfg.Trading.Commission, zapLogger)

	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	leaderboardStore := leaderboard.NewDBSource(db)
	leaderboardService := leaderboard.NewService(leaderboardStore, leaderboardStore, cfg.Leaderboard, zapLogger)
	go leaderboardService.Run(ctx)

	handler := api.New(accountStore, accountStore, tradeService, tradeStore, leaderboardService, authService, zapLogger)

	httpServer := server.NewHTTPServer(ctx, cfg.Port, handler.SetupRouter())
	zapLogger.Infof("starting http server on :%s", cfg.Port)
	if err := httpServer.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Errorf("%s: http server stopped", err)
	}
}
