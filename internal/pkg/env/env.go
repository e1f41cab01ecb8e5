package env

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env holds the variables loaded from the .env file. Process environment
// variables take effect as a fallback, so containerized deployments work
// without a file entry for every knob.
var Env map[string]string

// GetEnv returns the value for key, preferring the .env file over the process
// environment, falling back to def.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt is GetEnv for integer knobs. Unparseable or negative values fall
// back to def.
func GetEnvInt(key string, def int) int {
	n, err := strconv.Atoi(GetEnv(key, strconv.Itoa(def)))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// SetupEnvFile loads the first .env file found walking up from the working
// directory. Binaries under cmd/ start two levels below the project root.
func SetupEnvFile() {
	candidates := []string{
		".env",
		"../../.env",
		"../../../.env",
	}

	var err error
	for _, path := range candidates {
		Env, err = godotenv.Read(path)
		if err == nil {
			return
		}
	}

	panic("No .env file found in any of the expected locations")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
