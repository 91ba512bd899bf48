package main

import (
	"context"
	"fmt"

	"raffleworld/internal/api"
	"raffleworld/internal/config"
	"raffleworld/internal/feed"
	"raffleworld/internal/logger"
	"raffleworld/internal/raffle"
	"raffleworld/internal/storage"
	"raffleworld/internal/token"
	"raffleworld/internal/tracker"
	"raffleworld/internal/vrf"

	"github.com/gin-gonic/gin"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

type oracle interface {
	raffle.RandomnessOracle
	Bind(consumer vrf.Consumer)
}

type app struct {
	storage     *storage.GormStorage
	hub         *feed.Hub
	coordinator *vrf.Coordinator
	router      *gin.Engine
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	owner, err := cfg.Registry.OwnerAccount()
	if err != nil {
		return nil, err
	}
	custody, err := cfg.Registry.CustodyAccount()
	if err != nil {
		return nil, err
	}
	feeToken, err := cfg.Oracle.FeeTokenAccount()
	if err != nil {
		return nil, err
	}
	oracleAccount, err := cfg.Oracle.OracleAccount()
	if err != nil {
		return nil, err
	}
	keyHash, err := cfg.Oracle.KeyHashBytes()
	if err != nil {
		return nil, err
	}

	if cfg.Chain.Verify {
		if err := verifyAccounts(ctx, cfg, map[string]ton.AccountID{"owner": owner, "custody": custody}); err != nil {
			return nil, err
		}
	}

	tokens, err := loadTokens(cfg.Tokens)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewGormStorage(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	auditSink, err := storage.NewEventSink(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	hub := feed.NewHub()

	a := &app{storage: db, hub: hub}

	var (
		randomness oracle
		fulfiller  api.Fulfiller
	)
	switch cfg.Oracle.Mode {
	case config.OracleModeMock:
		mock := vrf.NewMock(keyHash)
		randomness, fulfiller = mock, mock
	default:
		a.coordinator = vrf.NewCoordinator(vrf.Config{
			KeyHash:     keyHash,
			Delay:       cfg.Oracle.Delay,
			RetryDelay:  cfg.Oracle.RetryDelay,
			MaxAttempts: cfg.Oracle.MaxAttempts,
			QueueSize:   cfg.Oracle.QueueSize,
		})
		randomness = a.coordinator
	}

	registry, err := raffle.NewRegistry(raffle.Options{
		Policy:        raffle.OwnerPolicy{Owner: owner},
		Custody:       custody,
		Tokens:        tokens,
		Oracle:        randomness,
		Sink:          raffle.Sinks{auditSink, hub},
		KeyHash:       keyHash,
		OracleFee:     cfg.Oracle.Fee,
		FeeToken:      feeToken,
		OracleAccount: oracleAccount,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	randomness.Bind(registry)

	a.router = api.NewRouter(api.NewHandler(api.Options{
		Registry:  registry,
		Tokens:    tokens,
		Storage:   db,
		Feed:      hub,
		Fulfiller: fulfiller,
		RunID:     auditSink.RunID(),
	}))
	return a, nil
}

func (a *app) close() {
	if err := a.storage.Close(); err != nil {
		logger.Error("close storage", zap.Error(err))
	}
}

func loadTokens(configs []config.TokenConfig) (*token.Directory, error) {
	directory := token.NewDirectory()
	for _, tc := range configs {
		master, err := tc.MasterAccount()
		if err != nil {
			return nil, err
		}
		jetton := token.NewJetton(master, tc.Symbol, tc.Decimals)
		for _, allocation := range tc.Genesis {
			holder, err := allocation.HolderAccount()
			if err != nil {
				return nil, err
			}
			if err := jetton.Mint(holder, allocation.Amount); err != nil {
				return nil, fmt.Errorf("mint %s genesis: %w", tc.Symbol, err)
			}
		}
		if err := directory.Register(jetton); err != nil {
			return nil, err
		}
	}
	return directory, nil
}

func verifyAccounts(ctx context.Context, cfg *config.Config, accounts map[string]ton.AccountID) error {
	t, err := tracker.NewTracker(cfg.Chain.Token)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Chain.Timeout)
	defer cancel()

	states, err := t.VerifyAccounts(ctx, accounts)
	if err != nil {
		return err
	}
	for _, state := range states {
		logger.Info("account verified", zap.String("address", state.Address.ToRaw()), zap.String("status", state.Status), zap.Int64("balance", state.Balance))
	}
	return nil
}
