// Package bounty is the research bounty board. Creating a bounty escrows the
// reward through the external token ledger before the bounty becomes
// visible; the ledger itself is out of scope and reached only through the
// Ledger interface.
package bounty

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"healthchain/internal/audit"
	"healthchain/internal/identity"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/requestcontext"
)

// Status tracks a bounty's lifecycle. Only Open is reachable through this
// service today; the remaining transitions belong to the award flow.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Bounty is one funded research task.
type Bounty struct {
	ID          uint64     `json:"id"`
	Creator     id.UserID  `json:"creator"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Reward      uint64     `json:"reward"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	Winner      *id.UserID `json:"winner,omitempty"`
}

// EscrowAccount is the ledger account that holds locked rewards.
const EscrowAccount id.UserID = "bounty-escrow"

// Ledger is the external token-ledger boundary. Transfer debits from and
// credits to; it blocks until the ledger answers.
type Ledger interface {
	Transfer(ctx context.Context, from, to id.UserID, amount uint64) error
}

// Directory resolves creators lazily like every other mutating path.
type Directory interface {
	ResolveOrCreate(ctx context.Context, caller id.UserID) (*identity.UserProfile, error)
}

// Service manages the bounty board.
//
// The ledger call is the one operation in the system that suspends mid
// flight, so nothing read before it may be trusted after it returns: the
// bounty identifier is allocated and the bounty stored only after the
// transfer succeeds, under the service lock.
type Service struct {
	ledger    Ledger
	directory Directory
	recorder  *audit.Recorder
	logger    *slog.Logger

	mu       sync.RWMutex
	bounties []Bounty
	nextID   uint64
}

func NewService(ledger Ledger, directory Directory, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{ledger: ledger, directory: directory, recorder: recorder, logger: logger}
}

// Create locks the reward in escrow, then records the bounty.
func (s *Service) Create(ctx context.Context, caller id.UserID, title, description string, reward uint64) (uint64, error) {
	if title == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "bounty title cannot be empty")
	}
	if reward == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "bounty reward must be positive")
	}
	if _, err := s.directory.ResolveOrCreate(ctx, caller); err != nil {
		return 0, err
	}

	if err := s.ledger.Transfer(ctx, caller, EscrowAccount, reward); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeConflict, "reward transfer failed")
	}

	s.mu.Lock()
	bountyID := s.nextID
	s.nextID++
	s.bounties = append(s.bounties, Bounty{
		ID:          bountyID,
		Creator:     caller,
		Title:       title,
		Description: description,
		Reward:      reward,
		Status:      StatusOpen,
		CreatedAt:   requestcontext.Now(ctx),
	})
	s.mu.Unlock()

	if _, err := s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionCreateBounty}); err != nil {
		return 0, err
	}
	return bountyID, nil
}

// List returns all bounties in creation order.
func (s *Service) List(ctx context.Context) ([]Bounty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Bounty{}, s.bounties...), nil
}

// InMemoryLedger is a process-local ledger used in development and tests.
// The production deployment points Ledger at the real token service.
type InMemoryLedger struct {
	mu       sync.Mutex
	balances map[id.UserID]uint64
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{balances: make(map[id.UserID]uint64)}
}

// Credit funds an account. Test and bootstrap helper.
func (l *InMemoryLedger) Credit(account id.UserID, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Balance reports an account's funds.
func (l *InMemoryLedger) Balance(account id.UserID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

func (l *InMemoryLedger) Transfer(_ context.Context, from, to id.UserID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return dErrors.New(dErrors.CodeConflict, "insufficient funds")
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
