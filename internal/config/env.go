package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one present is loaded.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first .env file found. Existing process environment
// variables are not overwritten. No file present is not an error.
func loadEnvFile() error {
	for _, name := range envFiles {
		err := godotenv.Load(name)
		if err == nil {
			slog.Debug("Loaded environment variables", slog.String("path", name))
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
