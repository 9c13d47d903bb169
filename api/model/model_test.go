package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDeposit(t *testing.T) {
	tests := []struct {
		name    string
		deposit Deposit
		wantErr string
	}{
		{name: "valid", deposit: Deposit{AccountNumber: "ACC-1", Amount: decimal.NewFromInt(10)}},
		{name: "missing account", deposit: Deposit{Amount: decimal.NewFromInt(10)}, wantErr: "account_number: cannot be blank."},
		{name: "zero amount", deposit: Deposit{AccountNumber: "ACC-1"}, wantErr: "amount: must be greater than zero."},
		{name: "negative amount", deposit: Deposit{AccountNumber: "ACC-1", Amount: decimal.NewFromInt(-1)}, wantErr: "amount: must be greater than zero."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.deposit.ValidateDeposit()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestValidateWithdraw(t *testing.T) {
	w := Withdraw{AccountNumber: "ACC-1", Amount: decimal.RequireFromString("0.01")}
	assert.NoError(t, w.ValidateWithdraw())

	w.Amount = decimal.Zero
	assert.Error(t, w.ValidateWithdraw())
}

func TestValidateTransfer(t *testing.T) {
	transfer := Transfer{FromAccount: "ACC-1", ToAccount: "ACC-2", Amount: decimal.NewFromInt(5)}
	assert.NoError(t, transfer.ValidateTransfer())

	transfer.ToAccount = "ACC-1"
	assert.NoError(t, transfer.ValidateTransfer())

	transfer = Transfer{Amount: decimal.NewFromInt(5)}
	err := transfer.ValidateTransfer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from_account: cannot be blank")
	assert.Contains(t, err.Error(), "to_account: cannot be blank")
}

func TestDailyCountsQuery_Range(t *testing.T) {
	from, to, err := DailyCountsQuery{}.Range()
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)

	from, to, err = DailyCountsQuery{From: "2024-03-01", To: "2024-03-05"}.Range()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *to)

	_, _, err = DailyCountsQuery{From: "01/03/2024"}.Range()
	assert.Error(t, err)
}
