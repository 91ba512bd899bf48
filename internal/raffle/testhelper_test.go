package raffle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tonkeeper/tongo/ton"
)

var (
	ownerAccount     = testAccount(1)
	buyerAccount     = testAccount(2)
	secondaryAccount = testAccount(3)
	custodyAccount   = testAccount(10)
	oracleAccount    = testAccount(11)
	prizeToken       = testAccount(20)
	feeToken         = testAccount(21)
)

var genesis = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func testAccount(n byte) ton.AccountID {
	return ton.AccountID{Workchain: 0, Address: [32]byte{31: n}}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type allowanceKey struct {
	holder  ton.AccountID
	spender ton.AccountID
}

type fakeLedger struct {
	balances   map[ton.AccountID]uint64
	allowances map[allowanceKey]uint64
	failNext   error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:   make(map[ton.AccountID]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

func (l *fakeLedger) BalanceOf(holder ton.AccountID) uint64 {
	return l.balances[holder]
}

func (l *fakeLedger) Allowance(holder, spender ton.AccountID) uint64 {
	return l.allowances[allowanceKey{holder, spender}]
}

func (l *fakeLedger) Approve(holder, spender ton.AccountID, amount uint64) {
	l.allowances[allowanceKey{holder, spender}] = amount
}

func (l *fakeLedger) TransferFrom(spender, holder, recipient ton.AccountID, amount uint64) error {
	key := allowanceKey{holder, spender}
	if l.allowances[key] < amount {
		return errors.New("insufficient allowance")
	}
	if err := l.Transfer(holder, recipient, amount); err != nil {
		return err
	}
	l.allowances[key] -= amount
	return nil
}

func (l *fakeLedger) Transfer(sender, recipient ton.AccountID, amount uint64) error {
	if l.failNext != nil {
		err := l.failNext
		l.failNext = nil
		return err
	}
	if l.balances[sender] < amount {
		return errors.New("insufficient balance")
	}
	l.balances[sender] -= amount
	l.balances[recipient] += amount
	return nil
}

type fakeTokens map[ton.AccountID]*fakeLedger

func (t fakeTokens) Ledger(token ton.AccountID) (TokenLedger, error) {
	ledger, ok := t[token]
	if !ok {
		return nil, fmt.Errorf("unknown token %s", token.ToRaw())
	}
	return ledger, nil
}

type fakeOracle struct {
	requests []RequestID
	seeds    [][32]byte
	fees     []uint64
	err      error
}

func (o *fakeOracle) RequestRandomness(_ context.Context, seed [32]byte, fee uint64) (RequestID, error) {
	if o.err != nil {
		return RequestID{}, o.err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(o.requests)+1))
	id := RequestID(sha256.Sum256(append(seed[:], buf[:]...)))

	o.requests = append(o.requests, id)
	o.seeds = append(o.seeds, seed)
	o.fees = append(o.fees, fee)
	return id, nil
}

func (o *fakeOracle) last(t *testing.T) RequestID {
	t.Helper()
	if len(o.requests) == 0 {
		t.Fatal("no randomness request issued")
	}
	return o.requests[len(o.requests)-1]
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) HandleEvent(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) last(t *testing.T) Event {
	t.Helper()
	if len(s.events) == 0 {
		t.Fatal("no events recorded")
	}
	return s.events[len(s.events)-1]
}

func (s *recordingSink) named(name string) []Event {
	var out []Event
	for _, e := range s.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	registry *Registry
	clock    *fakeClock
	prize    *fakeLedger
	fee      *fakeLedger
	oracle   *fakeOracle
	sink     *recordingSink
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()

	f := &fixture{
		clock:  &fakeClock{now: genesis},
		prize:  newFakeLedger(),
		fee:    newFakeLedger(),
		oracle: &fakeOracle{},
		sink:   &recordingSink{},
	}
	f.prize.balances[ownerAccount] = 1_000_000_000_000_000
	f.prize.balances[buyerAccount] = 1_000_000
	f.prize.balances[secondaryAccount] = 1_000_000

	options := Options{
		Policy:        OwnerPolicy{Owner: ownerAccount},
		Custody:       custodyAccount,
		Tokens:        fakeTokens{prizeToken: f.prize, feeToken: f.fee},
		Oracle:        f.oracle,
		Clock:         f.clock,
		Sink:          f.sink,
		FeeToken:      feeToken,
		OracleAccount: oracleAccount,
	}
	for _, m := range mutate {
		m(&options)
	}

	registry, err := NewRegistry(options)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	f.registry = registry
	return f
}

func defaultParams(start time.Time) RaffleParams {
	return RaffleParams{
		Name:         "Test raffle",
		StartDate:    start,
		PrizeToken:   prizeToken,
		PrizeAmount:  1_000_000_000_000,
		TicketsLimit: 10,
		TicketPrice:  1000,
		LockDays:     2,
	}
}

// createRaffle approves and creates a raffle that starts one day from now.
func (f *fixture) createRaffle(t *testing.T, mutate ...func(*RaffleParams)) uint64 {
	t.Helper()

	params := defaultParams(f.clock.Now().Add(24 * time.Hour))
	for _, m := range mutate {
		m(&params)
	}
	f.prize.Approve(ownerAccount, custodyAccount, params.PrizeAmount)

	index, err := f.registry.Create(context.Background(), ownerAccount, params)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return index
}

func (f *fixture) buy(t *testing.T, buyer ton.AccountID, index uint64, quantity uint64) {
	t.Helper()

	view, err := f.registry.Raffle(index)
	if err != nil {
		t.Fatalf("Raffle failed: %v", err)
	}
	f.prize.Approve(buyer, custodyAccount, quantity*view.TicketPrice)
	if err := f.registry.BuyTickets(context.Background(), buyer, index, quantity); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
}
