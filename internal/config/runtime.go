package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const defaultRuntimeDir = ".dissonance"

func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv("CODE_RUNTIME_PATH"))
}

func resolveRuntimePath(path string) string {
	if path == "" {
		path = defaultRuntimeDir
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

// LoadEnv loads <runtime>/.env into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadEnv() error {
	err := godotenv.Load(filepath.Join(GetRuntimePath(), ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
