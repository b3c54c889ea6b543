package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/danmuck/gnunet/config"
	"github.com/danmuck/gnunet/gns"
	"github.com/danmuck/gnunet/internal/logging"
)

func main() {
	configPath := flag.StringP("config", "c", "", "use a non-default configuration file")
	typeName := flag.StringP("type", "t", "A", "record type to look up")
	flag.Parse()

	logging.ConfigureRuntime()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-c CONFIG] [-t TYPE] NAME\n", os.Args[0])
		os.Exit(2)
	}
	name := flag.Arg(0)

	recordType, err := gns.ParseRecordType(*typeName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad record type")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	record, err := gns.LookupInMaster(cfg, name, recordType, nil)
	if err != nil {
		log.Fatal().Err(err).Str("name", name).Msg("lookup failed")
	}
	fmt.Println(record)
}

func loadConfig(path string) (*config.Cfg, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Default()
}
