// Package testhelper holds shared test setup.
package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// LogEnv re-enables logging in tests when set to a zerolog level name.
const LogEnv = "LAQC_TEST_LOG"

// init disables logging for tests unless explicitly enabled
func init() {
	if testing.Testing() {
		SilenceLogs()
	}
}

// SilenceLogs sets the global zerolog level to disabled, or to the level
// named by LAQC_TEST_LOG.
func SilenceLogs() {
	value := os.Getenv(LogEnv)
	if value == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return
	}

	level, err := zerolog.ParseLevel(value)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}
