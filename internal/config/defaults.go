package config

import "time"

const (
	DefaultOracleMode        = OracleModeCoordinator
	DefaultOracleDelay       = 2 * time.Second
	DefaultOracleRetryDelay  = 1 * time.Second
	DefaultOracleMaxAttempts = 5
	DefaultOracleQueueSize   = 64
	DefaultStorageDriver     = "sqlite"
	DefaultStorageDSN        = "raffleworld.db"
	DefaultHTTPListen        = ":8080"
	DefaultLogLevel          = "info"
	DefaultChainTimeout      = 30 * time.Second
	DefaultTokenDecimals     = 9
)

const (
	OracleModeCoordinator = "coordinator"
	OracleModeMock        = "mock"
)

func (c *Config) applyDefaults() {
	if c.Oracle.Mode == "" {
		c.Oracle.Mode = DefaultOracleMode
	}
	if c.Oracle.Delay == 0 {
		c.Oracle.Delay = DefaultOracleDelay
	}
	if c.Oracle.RetryDelay == 0 {
		c.Oracle.RetryDelay = DefaultOracleRetryDelay
	}
	if c.Oracle.MaxAttempts == 0 {
		c.Oracle.MaxAttempts = DefaultOracleMaxAttempts
	}
	if c.Oracle.QueueSize == 0 {
		c.Oracle.QueueSize = DefaultOracleQueueSize
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.DSN == "" && c.Storage.Driver == DefaultStorageDriver {
		c.Storage.DSN = DefaultStorageDSN
	}

	if c.HTTP.Listen == "" {
		c.HTTP.Listen = DefaultHTTPListen
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Chain.Timeout == 0 {
		c.Chain.Timeout = DefaultChainTimeout
	}

	for i := range c.Tokens {
		if c.Tokens[i].Decimals == 0 {
			c.Tokens[i].Decimals = DefaultTokenDecimals
		}
	}
}
