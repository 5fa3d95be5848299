package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tourcheck/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8080")
//	-g string       gRPC health bind address (e.g., ":50051")
//	-s string       storage backend: memory, postgres, redis, s3
//	-d string       PostgreSQL DSN
//	-redis string   Redis address
//	-u string       S3 root user
//	-p string       S3 root password
//	-b string       S3 bucket name
//	-region string  S3 region
//	-e string       S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-s", "-d", "-redis", "-u", "-p", "-b", "-region", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP address and port")
	fs.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&cfg.Storage, "s", cfg.Storage, "storage backend: memory, postgres, redis or s3")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	switch cfg.Storage {
	case StorageMemory, StoragePostgres, StorageRedis, StorageS3:
	default:
		panic(fmt.Sprintf("unknown storage %q", cfg.Storage))
	}
}
