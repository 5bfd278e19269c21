package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an
// error: the .env is optional.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return err
	}

	for k, v := range vars {
		if _, exists := os.LookupEnv(k); !exists {
			os.Setenv(k, v)
		}
	}
	return nil
}
