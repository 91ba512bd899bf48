package token

import (
	"fmt"
	"sort"
	"sync"

	"raffleworld/internal/logger"
	"raffleworld/internal/raffle"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// Directory resolves jetton masters to their ledgers.
type Directory struct {
	mu      sync.RWMutex
	jettons map[ton.AccountID]*Jetton
}

func NewDirectory() *Directory {
	return &Directory{jettons: make(map[ton.AccountID]*Jetton)}
}

func (d *Directory) Register(jetton *Jetton) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.jettons[jetton.Master]; ok {
		return fmt.Errorf("%w: %s", ErrTokenExists, jetton.Master.ToRaw())
	}
	d.jettons[jetton.Master] = jetton

	logger.Info("token: registered jetton", zap.String("master", jetton.Master.ToRaw()), zap.String("symbol", jetton.Symbol))
	return nil
}

func (d *Directory) Jetton(master ton.AccountID) (*Jetton, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	jetton, ok := d.jettons[master]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, master.ToRaw())
	}
	return jetton, nil
}

func (d *Directory) Ledger(master ton.AccountID) (raffle.TokenLedger, error) {
	jetton, err := d.Jetton(master)
	if err != nil {
		return nil, err
	}
	return jetton, nil
}

// Jettons lists registered tokens ordered by symbol.
func (d *Directory) Jettons() []*Jetton {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Jetton, 0, len(d.jettons))
	for _, jetton := range d.jettons {
		out = append(out, jetton)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
