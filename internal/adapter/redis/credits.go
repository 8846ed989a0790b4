// Package redis implements the credit ledger on Redis via rueidis.
// Each owner has a single non-negative integer at "credits:{ownerID}".
package redis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/placescout/placescout-backend/internal/config"
	"github.com/placescout/placescout-backend/internal/domain"
)

// debitScript applies a conditional decrement in a single server-side step:
// the balance is read, normalized (missing or malformed values count as 0)
// and decremented only if it covers the requested amount. Returns the new
// balance, or -1 when the condition fails. Running it as one script is what
// makes concurrent debits race-safe — there is no read-then-write window.
const debitScript = `
local balance = tonumber(redis.call('GET', KEYS[1]))
if not balance or balance < 0 then balance = 0 end
balance = math.floor(balance)
local amount = tonumber(ARGV[1])
if balance < amount then return -1 end
local newbal = balance - amount
redis.call('SET', KEYS[1], newbal)
return newbal
`

// CreditStore reads and conditionally debits owner credit balances.
type CreditStore struct {
	client rueidis.Client
	prefix string
	debit  *rueidis.Lua
}

// NewCreditStore connects to Redis and returns a ready store.
func NewCreditStore(cfg config.CreditsConfig) (*CreditStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.Addr},
		Username:    cfg.Username,
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("credits: create client: %w", err)
	}
	return NewCreditStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewCreditStoreWithClient wraps an existing client (used by tests).
func NewCreditStoreWithClient(client rueidis.Client, prefix string) *CreditStore {
	return &CreditStore{
		client: client,
		prefix: prefix,
		debit:  rueidis.NewLuaScript(debitScript),
	}
}

// Ping checks connectivity.
func (s *CreditStore) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("credits: ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *CreditStore) Close() {
	s.client.Close()
}

func (s *CreditStore) key(ownerID uuid.UUID) string {
	return s.prefix + ownerID.String()
}

// Balance returns the owner's current credit balance. A missing key or a
// value that does not parse as a non-negative number reads as 0; an owner
// that was never funded is not an error.
func (s *CreditStore) Balance(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	cmd := s.client.B().Get().Key(s.key(ownerID)).Build()
	raw, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("credits: get balance: %w", err)
	}
	return normalizeBalance(raw), nil
}

// Debit atomically decrements the owner's balance by amount, only if the
// stored balance covers it at the moment of the write. Negative amounts
// clamp to 0; a zero amount returns the current balance without touching
// storage. The condition failing, or any storage fault, yields
// domain.ErrDebitFailed — the balance is never partially decremented.
func (s *CreditStore) Debit(ctx context.Context, ownerID uuid.UUID, amount int64) (int64, error) {
	if amount < 0 {
		amount = 0
	}
	if amount == 0 {
		return s.Balance(ctx, ownerID)
	}

	res := s.debit.Exec(ctx, s.client, []string{s.key(ownerID)}, []string{strconv.FormatInt(amount, 10)})
	newBalance, err := res.AsInt64()
	if err != nil {
		return 0, fmt.Errorf("credits: debit %d for %s: %v: %w", amount, ownerID, err, domain.ErrDebitFailed)
	}
	if newBalance < 0 {
		return 0, fmt.Errorf("credits: debit %d for %s: balance too low: %w", amount, ownerID, domain.ErrDebitFailed)
	}
	return newBalance, nil
}

// normalizeBalance parses a stored balance, tolerating float-encoded and
// garbage values the way the ledger always has: floor floats, read
// anything unparseable or negative as 0.
func normalizeBalance(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if f < 0 {
			return 0
		}
		return int64(math.Floor(f))
	}
	return 0
}
