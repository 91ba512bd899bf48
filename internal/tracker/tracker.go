// Package tracker checks registry accounts against the TON chain through
// tonapi.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raffleworld/internal/logger"

	"github.com/tonkeeper/tonapi-go"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

type Func[T any] func() (T, error)

// rateLimitRetry repeats fn while tonapi answers 429 and ctx is alive.
func rateLimitRetry[T any](ctx context.Context, fn Func[T]) (T, error) {
	for {
		result, err := fn()
		if err != nil {
			var e *tonapi.ErrorStatusCode
			if errors.As(err, &e) && e.StatusCode == tooManyRequests {
				logger.Debug("tracker: rate limited, retrying...")

				timer := time.NewTimer(rateLimitDelay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return result, ctx.Err()
				case <-timer.C:
				}
				continue
			}
		}

		return result, err
	}
}

type AccountState struct {
	Address ton.AccountID
	Balance int64
	Status  string
}

type Tracker struct {
	getAccount func(ctx context.Context, accountID string) (*tonapi.Account, error)
}

func NewTracker(token string) (*Tracker, error) {
	logger.Debug("tracker initialization: tonapi client...")

	client, err := tonapi.NewClient(tonapi.TonApiURL, tonapi.WithToken(token))
	if err != nil {
		return nil, fmt.Errorf("tracker: tonapi client: %w", err)
	}

	logger.Debug("tracker initialization: tonapi client... done")
	return &Tracker{
		getAccount: func(ctx context.Context, accountID string) (*tonapi.Account, error) {
			return client.GetAccount(ctx, tonapi.GetAccountParams{AccountID: accountID})
		},
	}, nil
}

// VerifyAccount fetches an account and fails when the chain does not
// know it.
func (t *Tracker) VerifyAccount(ctx context.Context, name string, accountID ton.AccountID) (AccountState, error) {
	logger.Debug("verify account: fetching account state...", zap.String("account", name), zap.String("address", accountID.ToRaw()))

	account, err := rateLimitRetry(ctx, func() (*tonapi.Account, error) {
		return t.getAccount(ctx, accountID.ToRaw())
	})
	if err != nil {
		return AccountState{}, fmt.Errorf("verify %s account %s: %w", name, accountID.ToRaw(), err)
	}

	state := AccountState{
		Address: accountID,
		Balance: account.GetBalance(),
		Status:  fmt.Sprint(account.GetStatus()),
	}

	logger.Debug("verify account: fetching account state... done",
		zap.String("account", name),
		zap.Int64("balance", state.Balance),
		zap.String("status", state.Status),
	)
	return state, nil
}

// VerifyAccounts checks every named account in turn and stops at the
// first failure.
func (t *Tracker) VerifyAccounts(ctx context.Context, accounts map[string]ton.AccountID) ([]AccountState, error) {
	states := make([]AccountState, 0, len(accounts))
	for name, accountID := range accounts {
		state, err := t.VerifyAccount(ctx, name, accountID)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}
