package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/danmuck/gnunet/config"
	"github.com/danmuck/gnunet/internal/logging"
	"github.com/danmuck/gnunet/peerinfo"
)

func main() {
	configPath := flag.StringP("config", "c", "", "use a non-default configuration file")
	showSelf := flag.BoolP("self", "s", false, "also print this node's own identity")
	flag.Parse()

	logging.ConfigureRuntime()

	var cfg *config.Cfg
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if *showSelf {
		id, err := peerinfo.SelfID(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to fetch own identity")
		}
		fmt.Printf("self: %s\n", id)
	}

	peers, err := peerinfo.IteratePeers(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list peers")
	}
	defer peers.Close()

	count := 0
	for peers.Next() {
		fmt.Println(peers.Identity())
		count++
	}
	if err := peers.Err(); err != nil {
		log.Fatal().Err(err).Msg("peer listing failed")
	}
	log.Info().Int("peers", count).Msg("listing complete")
}
