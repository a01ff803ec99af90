package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mailvault/internal/flagx"
)

// JsonConfig is the on-disk shape of the config file. Absent keys leave
// the corresponding Config field untouched.
type JsonConfig struct {
	Backend        *string `json:"backend"`
	DatabaseDSN    *string `json:"database_dsn"`
	SQLitePath     *string `json:"sqlite_path"`
	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3Prefix       *string `json:"s3_prefix"`
	KDFTime        *uint32 `json:"kdf_time"`
	KDFMemoryKiB   *uint32 `json:"kdf_memory_kib"`
	KDFThreads     *uint8  `json:"kdf_threads"`
	LogLevel       *string `json:"log_level"`
	LogFormat      *string `json:"log_format"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag. Without the flag nothing is loaded. An unreadable file
// or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile, _ := flagx.ConfigFileFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setIf(&config.Backend, c.Backend)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SQLitePath, c.SQLitePath)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIf(&config.S3Prefix, c.S3Prefix)
	setIf(&config.KDFTime, c.KDFTime)
	setIf(&config.KDFMemoryKiB, c.KDFMemoryKiB)
	setIf(&config.KDFThreads, c.KDFThreads)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.LogFormat, c.LogFormat)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
