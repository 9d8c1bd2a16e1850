package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultDotEnvFile is loaded when no env file is given explicitly.
const DefaultDotEnvFile = ".env"

// LoadDotEnv parses a .env file and returns key-value pairs.
// Note: This does NOT export to OS environment. Use LoadAndExportDotEnv if you
// need ${VAR} references in case files to see the values.
func LoadDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file %s: %w", path, err)
	}
	return vars, nil
}

// LoadAndExportDotEnv parses a .env file, returns key-value pairs,
// and exports them to the OS environment.
// Variables are only exported if not already set in the OS environment.
func LoadAndExportDotEnv(path string) (map[string]string, error) {
	vars, err := LoadDotEnv(path)
	if err != nil {
		return nil, err
	}

	for k, v := range vars {
		if _, set := os.LookupEnv(k); !set {
			_ = os.Setenv(k, v) // Error ignored: only fails for invalid key names
		}
	}

	return vars, nil
}

// LoadEnvFile exports path, or DefaultDotEnvFile when path is empty.
// A missing default file is not an error; a missing explicit file is.
func LoadEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultDotEnvFile
	}

	vars, err := LoadAndExportDotEnv(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return vars, nil
}
