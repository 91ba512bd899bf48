// Package token is an in-process fungible token ledger keyed by jetton
// master address.
package token

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tonkeeper/tongo/ton"
)

var (
	ErrInsufficientBalance   = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("token: transfer amount exceeds allowance")
	ErrBalanceOverflow       = errors.New("token: balance overflow")
	ErrUnknownToken          = errors.New("token: unknown token")
	ErrTokenExists           = errors.New("token: token already registered")
)

type allowanceKey struct {
	holder  ton.AccountID
	spender ton.AccountID
}

// Jetton holds the balances and allowances of one token.
type Jetton struct {
	Master   ton.AccountID
	Symbol   string
	Decimals int32

	mu         sync.RWMutex
	supply     uint64
	balances   map[ton.AccountID]uint64
	allowances map[allowanceKey]uint64
}

func NewJetton(master ton.AccountID, symbol string, decimals int32) *Jetton {
	return &Jetton{
		Master:     master,
		Symbol:     symbol,
		Decimals:   decimals,
		balances:   make(map[ton.AccountID]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

func (j *Jetton) TotalSupply() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.supply
}

func (j *Jetton) BalanceOf(holder ton.AccountID) uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.balances[holder]
}

func (j *Jetton) Allowance(holder, spender ton.AccountID) uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.allowances[allowanceKey{holder, spender}]
}

func (j *Jetton) Mint(holder ton.AccountID, amount uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if amount > math.MaxUint64-j.supply {
		return ErrBalanceOverflow
	}
	j.supply += amount
	j.balances[holder] += amount
	return nil
}

// Approve sets, not increases, the spender's allowance over holder funds.
func (j *Jetton) Approve(holder, spender ton.AccountID, amount uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := allowanceKey{holder, spender}
	if amount == 0 {
		delete(j.allowances, key)
		return
	}
	j.allowances[key] = amount
}

func (j *Jetton) Transfer(sender, recipient ton.AccountID, amount uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.move(sender, recipient, amount)
}

func (j *Jetton) TransferFrom(spender, holder, recipient ton.AccountID, amount uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := allowanceKey{holder, spender}
	if j.allowances[key] < amount {
		return fmt.Errorf("%w: %s", ErrInsufficientAllowance, j.Symbol)
	}
	if err := j.move(holder, recipient, amount); err != nil {
		return err
	}
	j.allowances[key] -= amount
	if j.allowances[key] == 0 {
		delete(j.allowances, key)
	}
	return nil
}

func (j *Jetton) move(sender, recipient ton.AccountID, amount uint64) error {
	if j.balances[sender] < amount {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, j.Symbol)
	}
	if sender == recipient || amount == 0 {
		return nil
	}
	j.balances[sender] -= amount
	j.balances[recipient] += amount
	return nil
}
