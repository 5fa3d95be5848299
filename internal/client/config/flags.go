package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/tourcheck/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-d", "-i", "-p", "-t", "-l", "-probe", "-g"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RemoteURL, "r", cfg.RemoteURL, "base URL of the remote document store")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path to the local database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	pollInterval := fs.Int("p", int(cfg.PollInterval.Milliseconds()), "poll interval (in milliseconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "remote request timeout (in seconds)")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file, - for stderr")
	fs.StringVar(&cfg.Probe, "probe", cfg.Probe, "reachability probe: http, grpc or none")
	fs.StringVar(&cfg.GRPCHealthAddr, "g", cfg.GRPCHealthAddr, "gRPC health address of the store server")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	switch cfg.Probe {
	case ProbeHTTP, ProbeGRPC, ProbeNone:
	default:
		panic(fmt.Sprintf("unknown probe %q", cfg.Probe))
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.PollInterval = time.Duration(*pollInterval) * time.Millisecond
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
