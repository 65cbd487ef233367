package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soclite/internal/analysts"
	"soclite/internal/config"
	"soclite/internal/correlation"
	"soclite/internal/db"
	"soclite/internal/httpserver"
	"soclite/internal/logging"
	"soclite/internal/logs"
	"soclite/internal/notify"
	"soclite/internal/tickets"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := logging.New()

	cfg := config.Load()

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, "sql"); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	dispatcher := notify.NewDispatcher(notify.NewMailer(cfg.SMTP), logger)
	dispatcher.Start(ctx)

	logStore := logs.NewStore(dbConn)
	corrStore := correlation.NewStore(dbConn)
	analystStore := analysts.NewStore(dbConn)
	ticketStore := tickets.NewStore(dbConn)

	if err := correlation.SeedRules(ctx, corrStore, cfg.RulesPath); err != nil {
		log.Fatalf("seed correlation rules: %v", err)
	}

	engine := correlation.NewEngine(corrStore, corrStore, logStore, dispatcher, cfg.DefaultTo, logger)
	ingestor := logs.NewIngestor(logStore, engine, dispatcher, cfg.DefaultTo, logger)

	directory := analysts.NewDirectory(analystStore, cfg.DefaultTo)
	machine := tickets.NewMachine(ticketStore, directory, dispatcher, logger)

	handler := httpserver.NewRouter(
		logger,
		&logs.Handler{Ingestor: ingestor, Store: logStore, Logger: logger},
		&correlation.Handler{Store: corrStore, Logger: logger},
		&tickets.Handler{Machine: machine, Logger: logger},
		&analysts.Handler{Store: analystStore, Logger: logger},
	)
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	dispatcher.Stop()
}
