package config

import (
	"errors"
	"io/fs"

	"github.com/dmitrijs2005/admissions/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotEnv copies variables from the file named by -env (default ".env")
// into the process environment. Variables already set are kept. A missing
// file is not an error; a malformed one panics.
func loadDotEnv() {
	path := flagx.EnvFileFlags()
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}
