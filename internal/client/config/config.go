package config

import "time"

// Probe kinds for the connectivity watcher.
const (
	ProbeHTTP = "http"
	ProbeGRPC = "grpc"
	ProbeNone = "none"
)

// Config holds runtime settings for the tourcheck CLI.
//
// Fields:
//   - RemoteURL: base URL of the remote document store.
//   - DBPath: SQLite file holding local snapshots.
//   - OnlineCheckInterval: how often reachability is probed.
//   - PollInterval: how often the active tour is polled for changes.
//   - RequestTimeout: per-request deadline for the remote store.
//   - RetryInterval: how often an offline engine retries its push.
//   - LogFile, LogLevel: diagnostics go to a file so the prompt stays clean.
//   - Probe, GRPCHealthAddr: which reachability check to run.
type Config struct {
	RemoteURL           string
	DBPath              string
	OnlineCheckInterval time.Duration
	PollInterval        time.Duration
	RequestTimeout      time.Duration
	RetryInterval       time.Duration
	LogFile             string
	LogLevel            string
	Probe               string
	GRPCHealthAddr      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RemoteURL = "http://127.0.0.1:8080"
	c.DBPath = "tourcheck.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.PollInterval = 2500 * time.Millisecond
	c.RequestTimeout = 5 * time.Second
	c.RetryInterval = 10 * time.Second
	c.LogFile = "tourcheck.log"
	c.LogLevel = "info"
	c.Probe = ProbeHTTP
	c.GRPCHealthAddr = "127.0.0.1:50051"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
