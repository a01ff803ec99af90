package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/mailvault/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "MAILVAULT_"

// parseEnv loads the env file named by -env (or ./.env when present) into
// the process environment and then applies MAILVAULT_* variables. Values
// already set in the environment win over the file. A missing -env file
// or a malformed number panics.
func parseEnv(config *Config) {
	_, envFile := flagx.ConfigFileFlags()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	envString(&config.Backend, "BACKEND")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SQLitePath, "SQLITE_PATH")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3Prefix, "S3_PREFIX")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.LogFormat, "LOG_FORMAT")

	if v, ok := envUint("KDF_TIME", 32); ok {
		config.KDFTime = uint32(v)
	}
	if v, ok := envUint("KDF_MEMORY_KIB", 32); ok {
		config.KDFMemoryKiB = uint32(v)
	}
	if v, ok := envUint("KDF_THREADS", 8); ok {
		config.KDFThreads = uint8(v)
	}
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func envUint(name string, bits int) (uint64, bool) {
	raw, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
	}
	return v, true
}
