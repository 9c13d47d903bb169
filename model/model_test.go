package model

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	module := "txn"
	id := GenerateUUIDWithSuffix(module)
	assert.True(t, strings.HasPrefix(id, module+"_"))
	assert.NotEqual(t, id, GenerateUUIDWithSuffix(module))
}

func TestGenerateAccountNumber(t *testing.T) {
	number := GenerateAccountNumber()
	assert.Len(t, number, 12)
	assert.True(t, strings.HasPrefix(number, "ACC-"))
	assert.Equal(t, strings.ToUpper(number), number)
}

func TestResolveActor(t *testing.T) {
	assert.Equal(t, SystemActor, ResolveActor(""))
	assert.Equal(t, SystemActor, ResolveActor("   "))
	assert.Equal(t, "alice", ResolveActor("alice"))
}

func TestAccount_Debit(t *testing.T) {
	account := &Account{Balance: decimal.NewFromInt(500)}

	require.NoError(t, account.Debit(decimal.NewFromInt(500)))
	assert.True(t, account.Balance.IsZero())

	err := account.Debit(decimal.NewFromInt(1))
	assert.Error(t, err)
	assert.True(t, account.Balance.IsZero())
}

func TestAccount_Credit(t *testing.T) {
	account := &Account{Balance: decimal.NewFromInt(10)}
	account.Credit(decimal.RequireFromString("0.5"))
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("10.5")))
}

func TestNewTransaction(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	txn := NewTransaction("ACC-1", TypeDeposit, decimal.NewFromInt(100), "", StatusApproved, now)

	assert.True(t, strings.HasPrefix(txn.TransactionID, "txn_"))
	assert.Equal(t, "ACC-1", txn.AccountNumber)
	assert.Equal(t, SystemActor, txn.PerformedBy)
	assert.Equal(t, StatusApproved, txn.Status)
	assert.Equal(t, now, txn.CreatedAt)
	assert.Empty(t, txn.ReviewedBy)
}
