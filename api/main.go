// @title Filehub API
// @version 0.1
// @description GraphQL upload service. The REST surface covers health and the GraphQL transport.

// @host localhost:3000
// @BasePath /
// @schemes http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"log"

	_ "tush00nka/filehub/docs"
	"tush00nka/filehub/internal/app"
	"tush00nka/filehub/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if err := app.Run(cfg); err != nil {
		log.Fatalf("App error: %v", err)
	}
}
