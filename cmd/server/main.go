package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/Powerisinschool/edupane-backend/internal/api"
	"github.com/Powerisinschool/edupane-backend/internal/chat"
	"github.com/Powerisinschool/edupane-backend/internal/config"
	"github.com/Powerisinschool/edupane-backend/internal/database"
	"github.com/Powerisinschool/edupane-backend/internal/roster"
	"github.com/Powerisinschool/edupane-backend/internal/stats"
)

func main() {
	logger := log.New(os.Stderr, "[edupane] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgEdupaneRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(cfg.MigrationsPath); err != nil {
		logger.Fatal("migrate:", err)
	}

	rosterSvc := roster.NewService(dbConn, logger)
	if _, err := rosterSvc.EnsureGeneralRoom(cfg.AdminUserId); err != nil {
		// tolerable on a fresh database with no admin account yet
		logger.Println("ensure general room:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	presence := chat.NewPresenceRegistry(logger, cfg.SweepInterval)
	chatServer := chat.NewChatServer(logger, dbConn, presence, statsUpdater)
	if cfg.RedisAddr != "" {
		chatServer.UseRedisBackbone(cfg.RedisAddr)
	}

	srv := api.NewEdupaneApp(mux, logger, chatServer, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	if err := chatServer.Run(); err != nil {
		logger.Fatal("chat server:", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	chatServer.Shutdown()

	logger.Println("shutdown complete")
}
