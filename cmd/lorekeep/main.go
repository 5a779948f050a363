package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/lorekeep/lorekeep/catalogservice"
)

func main() {
	// Best effort .env load for local development.
	_ = godotenv.Load()

	if err := catalogservice.Run(); err != nil {
		log.Error().Err(err).Msg("lorekeep exited with error")
		os.Exit(1)
	}
}
