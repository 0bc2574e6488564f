package main

import (
	"flag"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// config is read from the environment first; flags win when given.
type config struct {
	Addr      string `env:"CHRONICLES_ADDR" envDefault:":8080"`
	ConfigDir string `env:"CHRONICLES_CONFIGS" envDefault:"./configs"`
	DataDir   string `env:"CHRONICLES_DATA" envDefault:"./data"`
	// TuningPath defaults to <configs>/tuning.yaml.
	TuningPath string `env:"CHRONICLES_TUNING"`
	// GenesisPath defaults to <configs>/genesis.yaml.
	GenesisPath string `env:"CHRONICLES_GENESIS"`

	Snapshot           string `env:"CHRONICLES_SNAPSHOT"`
	LoadLatestSnapshot bool   `env:"CHRONICLES_LOAD_LATEST_SNAPSHOT" envDefault:"true"`
	DisableDB          bool   `env:"CHRONICLES_DISABLE_DB"`

	EnableAdminHTTP bool `env:"CHRONICLES_ENABLE_ADMIN_HTTP" envDefault:"true"`
	EnablePprofHTTP bool `env:"CHRONICLES_ENABLE_PPROF_HTTP"`

	// Off-site copy of snapshots and epoch archives; disabled without a bucket.
	Mirror mirrorConfig `envPrefix:"CHRONICLES_MIRROR_"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"CHRONICLES_LOG_JSON"`
}

type mirrorConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION"`
	AccessKey string `env:"ACCESS_KEY_ID"`
	SecretKey string `env:"SECRET_ACCESS_KEY"`
	Prefix    string `env:"PREFIX"`
	Workers   int    `env:"WORKERS" envDefault:"1"`
	Queue     int    `env:"QUEUE" envDefault:"256"`
}

func (m mirrorConfig) enabled() bool { return m.Bucket != "" }

func loadConfig(args []string) (config, error) {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http listen address")
	fs.StringVar(&cfg.ConfigDir, "configs", cfg.ConfigDir, "config directory")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "runtime data directory")
	fs.StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "path to tuning.yaml (default: <configs>/tuning.yaml)")
	fs.StringVar(&cfg.GenesisPath, "genesis", cfg.GenesisPath, "path to genesis.yaml (default: <configs>/genesis.yaml)")
	fs.StringVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "path to snapshot to load (optional)")
	fs.BoolVar(&cfg.LoadLatestSnapshot, "load_latest_snapshot", cfg.LoadLatestSnapshot, "load latest snapshot from data dir if present (when -snapshot is empty)")
	fs.BoolVar(&cfg.DisableDB, "disable_db", cfg.DisableDB, "disable the sqlite index")
	fs.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c config) logLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
