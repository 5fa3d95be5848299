// Package config loads runtime configuration for the tourcheck CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-r string   base URL of the remote document store
//	-d string   path to the local SQLite database
//	-i int      online status check interval (seconds)
//	-p int      change poll interval (milliseconds)
//	-t int      remote request timeout (seconds)
//	-l string   log file ("-" for stderr)
//	-probe string  reachability probe: http, grpc or none
//	-g string   host:port of the store's gRPC health service
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "3s" or
// integer nanoseconds. Absent keys keep their defaults:
//
//	{
//	  "remote_url": "https://markella.example.firebaseio.com",
//	  "db_path": "tourcheck.db",
//	  "online_check_interval": "3s",
//	  "poll_interval": "2.5s",
//	  "request_timeout": "5s",
//	  "retry_interval": "10s",
//	  "log_file": "tourcheck.log",
//	  "log_level": "debug",
//	  "probe": "grpc",
//	  "grpc_health_addr": "127.0.0.1:50051"
//	}
package config
