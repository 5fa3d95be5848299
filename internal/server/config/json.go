package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tourcheck/internal/flagx"
	"github.com/dmitrijs2005/tourcheck/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept "5s" or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	GRPCAddr        string         `json:"grpc_addr"`
	Storage         string         `json:"storage"`
	DatabaseDSN     string         `json:"database_dsn"`
	RedisAddr       string         `json:"redis_addr"`
	RedisKeyPrefix  string         `json:"redis_key_prefix"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	BodyLimit       int            `json:"body_limit"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. Keys that are absent keep their current value. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	setString(&cfg.GRPCAddr, jc.GRPCAddr)
	setString(&cfg.Storage, jc.Storage)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisKeyPrefix, jc.RedisKeyPrefix)
	setString(&cfg.S3RootUser, jc.S3RootUser)
	setString(&cfg.S3RootPassword, jc.S3RootPassword)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)

	if jc.BodyLimit > 0 {
		cfg.BodyLimit = jc.BodyLimit
	}
	if jc.ShutdownTimeout.Duration > 0 {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
