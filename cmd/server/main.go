package main

import (
	"flag"
	"log"

	approuters "github.com/MaryRatiary/back-rise/internal/app_routers"
	"github.com/MaryRatiary/back-rise/internal/configuration"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	// Local development overrides; absent .env is fine in production.
	_ = godotenv.Load()

	container, err := configuration.BuildContainer(*configPath)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	approuters.StartServer(container)
}
