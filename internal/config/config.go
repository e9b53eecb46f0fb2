package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Board struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Broker struct {
		Driver string `yaml:"driver"` // memory | nats
		URL    string `yaml:"url"`
		Name   string `yaml:"name"`
		User   string `yaml:"user"` // password lives in the keyring
	} `yaml:"broker"`

	Pipeline struct {
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"pipeline"`

	Fetch struct {
		Enabled   bool    `yaml:"enabled"`
		Boards    []Board `yaml:"boards"`
		ReqPerSec float64 `yaml:"req_per_sec"`
		Burst     int     `yaml:"burst"`
	} `yaml:"fetch"`

	// Reaper is a hardening extension, not pipeline behavior: the
	// pipeline itself never times a pending job out.
	Reaper struct {
		Enabled               bool `yaml:"enabled"`
		PendingTimeoutMinutes int  `yaml:"pending_timeout_minutes"`
		SweepSeconds          int  `yaml:"sweep_seconds"`
	} `yaml:"reaper"`

	Auth struct {
		TokenTTLMinutes int `yaml:"token_ttl_minutes"`
	} `yaml:"auth"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
