package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"insightdash/adapters/excel"
	"insightdash/internal/config"
	"insightdash/internal/container"
	"insightdash/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := ui.NewServer(appContainer.Service, appContainer.Metrics, ui.Options{
		GinMode: appConfig.Server.GinMode,
		Reader:  excel.ReaderConfig{MaxRows: appConfig.Analysis.MaxRows},
		Logger:  appContainer.Logger,
	})
	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		appContainer.Logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
