package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"golistingsync_api/config"
	"golistingsync_api/internal/listings/app"
	"golistingsync_api/pkg/dbconnect/postgres"
)

func main() {
	log.Printf("Started listing sync service")

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", configPath, err)
	}

	pgConfig := &appConfig.Postgres
	if pgConfig.Host == "" {
		pgConfig = config.GetPostgresConfig()
	}
	connector := postgres.NewPgConnector(pgConfig)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	server := app.NewListingSyncServer(connector, appConfig, addr, os.Stdout)
	server.Run()
}
