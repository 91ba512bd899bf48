package config

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tonkeeper/tongo/ton"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if _, err := parseAccount("registry.owner", c.Registry.Owner); err != nil {
		return err
	}
	if _, err := parseAccount("registry.custody", c.Registry.Custody); err != nil {
		return err
	}

	switch c.Oracle.Mode {
	case OracleModeCoordinator, OracleModeMock:
	default:
		return fmt.Errorf("oracle.mode must be %q or %q, got %q", OracleModeCoordinator, OracleModeMock, c.Oracle.Mode)
	}
	if _, err := c.Oracle.KeyHashBytes(); err != nil {
		return err
	}
	if c.Oracle.Fee > 0 {
		if _, err := parseAccount("oracle.fee_token", c.Oracle.FeeToken); err != nil {
			return err
		}
		if _, err := parseAccount("oracle.account", c.Oracle.Account); err != nil {
			return err
		}
	}
	if c.Oracle.MaxAttempts < 1 {
		return errors.New("oracle.max_attempts must be >= 1")
	}
	if c.Oracle.QueueSize < 1 {
		return errors.New("oracle.queue_size must be >= 1")
	}

	switch c.Storage.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("storage.driver must be sqlite, mysql or postgres, got %q", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return errors.New("storage.dsn is required")
	}

	if c.HTTP.Listen == "" {
		return errors.New("http.listen is required")
	}

	seen := make(map[ton.AccountID]bool)
	for i, token := range c.Tokens {
		prefix := fmt.Sprintf("tokens[%d]", i)
		master, err := parseAccount(prefix+".master", token.Master)
		if err != nil {
			return err
		}
		if seen[master] {
			return fmt.Errorf("%s.master %s is listed twice", prefix, token.Master)
		}
		seen[master] = true
		if token.Symbol == "" {
			return fmt.Errorf("%s.symbol is required", prefix)
		}
		for j, allocation := range token.Genesis {
			if _, err := parseAccount(fmt.Sprintf("%s.genesis[%d].holder", prefix, j), allocation.Holder); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseAccount(field, value string) (ton.AccountID, error) {
	if value == "" {
		return ton.AccountID{}, fmt.Errorf("%s is required", field)
	}
	accountID, err := ton.ParseAccountID(value)
	if err != nil {
		return ton.AccountID{}, fmt.Errorf("%s: invalid address %q: %w", field, value, err)
	}
	return accountID, nil
}

func (r RegistryConfig) OwnerAccount() (ton.AccountID, error) {
	return parseAccount("registry.owner", r.Owner)
}

func (r RegistryConfig) CustodyAccount() (ton.AccountID, error) {
	return parseAccount("registry.custody", r.Custody)
}

// FeeTokenAccount and OracleAccount return the zero address when unset.
func (o OracleConfig) FeeTokenAccount() (ton.AccountID, error) {
	if o.FeeToken == "" {
		return ton.AccountID{}, nil
	}
	return parseAccount("oracle.fee_token", o.FeeToken)
}

func (o OracleConfig) OracleAccount() (ton.AccountID, error) {
	if o.Account == "" {
		return ton.AccountID{}, nil
	}
	return parseAccount("oracle.account", o.Account)
}

// KeyHashBytes decodes the hex key hash; an empty key hash is all zeros.
func (o OracleConfig) KeyHashBytes() ([32]byte, error) {
	var keyHash [32]byte
	if o.KeyHash == "" {
		return keyHash, nil
	}
	b, err := hex.DecodeString(o.KeyHash)
	if err != nil {
		return keyHash, fmt.Errorf("oracle.key_hash: %w", err)
	}
	if len(b) != len(keyHash) {
		return keyHash, fmt.Errorf("oracle.key_hash must be 32 bytes, got %d", len(b))
	}
	copy(keyHash[:], b)
	return keyHash, nil
}

func (t TokenConfig) MasterAccount() (ton.AccountID, error) {
	return parseAccount("tokens.master", t.Master)
}

func (a Allocation) HolderAccount() (ton.AccountID, error) {
	return parseAccount("tokens.genesis.holder", a.Holder)
}
