package teller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankapp/teller/config"
	"github.com/bankapp/teller/database/memory"
	"github.com/bankapp/teller/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func mockLedgerConfig(redisDns string) {
	config.MockConfig(&config.Configuration{
		DataSource: config.DataSourceConfig{Dns: "memory"},
		Redis:      config.RedisConfig{Dns: redisDns},
	})
}

func newTestTeller(t *testing.T, hooks ...AuditHook) (*Teller, *memory.Store) {
	t.Helper()
	mockLedgerConfig("")

	store := memory.New()
	tl, err := NewTeller(store, hooks...)
	require.NoError(t, err)
	tl.retryDelay = time.Millisecond
	return tl, store
}

func createAccount(t *testing.T, store *memory.Store, balance string) string {
	t.Helper()
	account, err := store.CreateAccount(context.Background(), model.Account{
		HolderName:   gofakeit.Name(),
		PanNumber:    gofakeit.LetterN(5) + gofakeit.DigitN(4) + gofakeit.LetterN(1),
		Email:        gofakeit.Email(),
		MobileNumber: gofakeit.Phone(),
		Balance:      decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return account.AccountNumber
}

func balanceOf(t *testing.T, store *memory.Store, accountNumber string) decimal.Decimal {
	t.Helper()
	account, err := store.GetActiveAccountByNumber(context.Background(), accountNumber)
	require.NoError(t, err)
	return account.Balance
}

func assertBalance(t *testing.T, store *memory.Store, accountNumber, want string) {
	t.Helper()
	got := balanceOf(t, store, accountNumber)
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "balance of %s: want %s, got %s", accountNumber, want, got)
}

func amount(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestNewTeller_Defaults(t *testing.T) {
	tl, _ := newTestTeller(t)

	assert.True(t, tl.ApprovalThreshold().Equal(decimal.NewFromInt(DefaultApprovalThreshold)))
	assert.Equal(t, time.UTC, tl.location)
	assert.Nil(t, tl.redis)
	assert.Equal(t, config.DEFAULT_LOCK_TIMEOUT_SEC*time.Second, tl.lockTimeout)
}

func TestNewTeller_UsesLedgerConfig(t *testing.T) {
	config.MockConfig(&config.Configuration{
		DataSource: config.DataSourceConfig{Dns: "memory"},
		Ledger: config.LedgerConfig{
			ApprovalThreshold: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
			Timezone:          "Asia/Kolkata",
			LockTimeoutSec:    10,
			LockWaitSec:       2,
		},
	})

	tl, err := NewTeller(memory.New())
	require.NoError(t, err)
	assert.True(t, tl.ApprovalThreshold().Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "Asia/Kolkata", tl.location.String())
	assert.Equal(t, 10*time.Second, tl.lockTimeout)
	assert.Equal(t, 2*time.Second, tl.lockWait)
}

func TestNewTeller_ConnectsRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	mockLedgerConfig(mr.Addr())
	tl, err := NewTeller(memory.New())
	require.NoError(t, err)
	assert.NotNil(t, tl.redis)
}

func TestNewTeller_UnreachableRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	mockLedgerConfig(addr)
	_, err = NewTeller(memory.New())
	assert.Error(t, err)
}
