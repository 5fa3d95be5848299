package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tourcheck/internal/flagx"
	"github.com/dmitrijs2005/tourcheck/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	RemoteURL           string         `json:"remote_url"`
	DBPath              string         `json:"db_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	PollInterval        timex.Duration `json:"poll_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	RetryInterval       timex.Duration `json:"retry_interval"`
	LogFile             string         `json:"log_file"`
	LogLevel            string         `json:"log_level"`
	Probe               string         `json:"probe"`
	GRPCHealthAddr      string         `json:"grpc_health_addr"`
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

	setString(&cfg.RemoteURL, jc.RemoteURL)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.Probe, jc.Probe)
	setString(&cfg.GRPCHealthAddr, jc.GRPCHealthAddr)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RetryInterval.Duration > 0 {
		cfg.RetryInterval = jc.RetryInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
