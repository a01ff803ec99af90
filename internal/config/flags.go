package config

import (
	"flag"
	"os"
	"strconv"

	"github.com/dmitrijs2005/mailvault/internal/flagx"
)

var configFlagNames = []string{"-s", "-d", "-f", "-u", "-p", "-b", "-g", "-e", "-x", "-t", "-m", "-j", "-l", "-o"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   storage backend (memory, postgres, sqlite, s3)
//	-d string   PostgreSQL DSN
//	-f string   SQLite database file
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-x string   S3 key prefix
//	-t uint     argon2id time cost
//	-m uint     argon2id memory cost, KiB
//	-j uint     argon2id threads
//	-l string   log level
//	-o string   log format (json, text)
//
// os.Args is filtered to these flags first so command arguments do not
// collide with them.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], configFlagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Backend, "s", config.Backend, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SQLitePath, "f", config.SQLitePath, "SQLite database file")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Prefix, "x", config.S3Prefix, "S3 key prefix")

	fs.Func("t", "argon2id time cost", uintFlag(&config.KDFTime, 32))
	fs.Func("m", "argon2id memory cost (KiB)", uintFlag(&config.KDFMemoryKiB, 32))
	fs.Func("j", "argon2id threads", uintFlag(&config.KDFThreads, 8))

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "o", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

// uintFlag parses into dst, rejecting values that do not fit in bits.
func uintFlag[T uint8 | uint32](dst *T, bits int) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseUint(s, 10, bits)
		if err != nil {
			return err
		}
		*dst = T(v)
		return nil
	}
}
