package testlog

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Start routes the global logger through t for the duration of the test.
func Start(t *testing.T) {
	t.Helper()
	prev := log.Logger
	log.Logger = zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })
}
