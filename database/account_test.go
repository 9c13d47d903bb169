package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankapp/teller/internal/apierror"
	"github.com/bankapp/teller/model"
)

var accountRowColumns = []string{"account_number", "holder_name", "pan_number", "email", "mobile_number", "balance", "active", "version", "created_at"}

func TestCreateAccount_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	account := model.Account{
		HolderName:   "Asha Rao",
		PanNumber:    "ABCDE1234F",
		Email:        "asha@example.com",
		MobileNumber: "9999999999",
		Balance:      decimal.NewFromInt(500000),
	}

	mock.ExpectExec("INSERT INTO teller.accounts").
		WithArgs(sqlmock.AnyArg(), account.HolderName, account.PanNumber, account.Email, account.MobileNumber, sqlmock.AnyArg(), true, int64(0), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreateAccount(context.Background(), account)
	assert.NoError(t, err)
	assert.Regexp(t, `^ACC-[0-9A-F]{8}$`, created.AccountNumber)
	assert.True(t, created.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveAccountByNumber_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT account_number, holder_name").
		WithArgs("ACC-MISSING").
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	_, err = ds.GetActiveAccountByNumber(context.Background(), "ACC-MISSING")

	var apiErr apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveAccountForUpdate_LocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	createdAt := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT account_number, (.+) FROM teller.accounts WHERE account_number = \\$1 AND active = TRUE FOR UPDATE").
		WithArgs("ACC-1").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("ACC-1", "Asha Rao", "ABCDE1234F", "asha@example.com", "9999999999", "500000.00", true, int64(3), createdAt))
	mock.ExpectCommit()

	err = ds.WithinTransaction(context.Background(), func(ctx context.Context, tx Tx) error {
		account, err := tx.GetActiveAccountForUpdate(ctx, "ACC-1")
		if err != nil {
			return err
		}
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(500000)))
		assert.Equal(t, int64(3), account.Version)
		assert.Equal(t, "Asha Rao", account.HolderName)
		return nil
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccountBalance_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	account := &model.Account{AccountNumber: "ACC-1", Balance: decimal.NewFromInt(250000), Version: 3}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE teller.accounts").
		WithArgs("ACC-1", sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = ds.WithinTransaction(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpdateAccountBalance(ctx, account)
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(4), account.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccountBalance_OptimisticLockFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	account := &model.Account{AccountNumber: "ACC-1", Balance: decimal.NewFromInt(250000), Version: 3}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE teller.accounts").
		WithArgs("ACC-1", sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = ds.WithinTransaction(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpdateAccountBalance(ctx, account)
	})

	var apiErr apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
	assert.Equal(t, int64(3), account.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
