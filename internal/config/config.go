// Package config loads the raffleworld YAML configuration.
package config

import (
	"time"

	"raffleworld/internal/logger"
)

type Config struct {
	Registry RegistryConfig       `yaml:"registry"`
	Oracle   OracleConfig         `yaml:"oracle"`
	Storage  StorageConfig        `yaml:"storage"`
	HTTP     HTTPConfig           `yaml:"http"`
	Log      logger.Configuration `yaml:"log"`
	Chain    ChainConfig          `yaml:"chain"`
	Tokens   []TokenConfig        `yaml:"tokens"`
}

type RegistryConfig struct {
	Owner   string `yaml:"owner"`
	Custody string `yaml:"custody"`
}

type OracleConfig struct {
	// Mode is "coordinator" for automatic fulfillment or "mock" for
	// fulfillment through the HTTP API only.
	Mode        string        `yaml:"mode"`
	KeyHash     string        `yaml:"key_hash"`
	Fee         uint64        `yaml:"fee"`
	FeeToken    string        `yaml:"fee_token"`
	Account     string        `yaml:"account"`
	Delay       time.Duration `yaml:"delay"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
	QueueSize   int           `yaml:"queue_size"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// ChainConfig controls the startup check of configured accounts against
// tonapi.
type ChainConfig struct {
	Verify  bool          `yaml:"verify"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type TokenConfig struct {
	Master   string       `yaml:"master"`
	Symbol   string       `yaml:"symbol"`
	Decimals int32        `yaml:"decimals"`
	Genesis  []Allocation `yaml:"genesis"`
}

type Allocation struct {
	Holder string `yaml:"holder"`
	Amount uint64 `yaml:"amount"`
}
