package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		log.Error().Err(err).Msg("free-ml failed")
		os.Exit(1)
	}
}
