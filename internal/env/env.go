// Package env provides environment variable loading from .env files.
// This allows sensitive configuration (like a private API host) to be stored
// in .env files that are gitignored, rather than hardcoded in YAML config.
package env

import (
	"os"

	"github.com/joho/godotenv"
)

// Load reads a .env file from the current working directory when one exists
// and exports its variables. Called at the start of each command so the
// variables are available before config loading expands ${VAR} references.
// A missing file is fine; system environment variables still apply.
func Load() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}
