/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/bankapp/teller/internal/apierror"
	"github.com/bankapp/teller/model"
)

const accountColumns = "account_number, holder_name, pan_number, email, mobile_number, balance, active, version, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(
		&account.AccountNumber,
		&account.HolderName,
		&account.PanNumber,
		&account.Email,
		&account.MobileNumber,
		&account.Balance,
		&account.Active,
		&account.Version,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func accountNotFound(accountNumber string, err error) error {
	return apierror.Wrap(err, apierror.ErrNotFound, fmt.Sprintf("Account with number '%s' not found", accountNumber), nil)
}

// CreateAccount inserts a new account. A number is generated when none is supplied.
func (d Datasource) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	ctx, span := otel.Tracer("teller.database").Start(ctx, "CreateAccount")
	defer span.End()

	if account.AccountNumber == "" {
		account.AccountNumber = model.GenerateAccountNumber()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	account.Active = true

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO teller.accounts (account_number, holder_name, pan_number, email, mobile_number, balance, active, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, account.AccountNumber, account.HolderName, account.PanNumber, account.Email, account.MobileNumber, account.Balance, account.Active, account.Version, account.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return model.Account{}, mapDBError(err, "Failed to create account")
	}

	return account, nil
}

// GetActiveAccountByNumber reads an active account without locking it.
func (d Datasource) GetActiveAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM teller.accounts
		WHERE account_number = $1 AND active = TRUE
	`, accountNumber)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountNotFound(accountNumber, err)
		}
		return nil, mapDBError(err, "Failed to retrieve account")
	}
	return account, nil
}

func (t *pgTx) GetActiveAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	return t.getAccountForUpdate(ctx, accountNumber, `
		SELECT `+accountColumns+`
		FROM teller.accounts
		WHERE account_number = $1 AND active = TRUE
		FOR UPDATE
	`)
}

func (t *pgTx) GetAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	return t.getAccountForUpdate(ctx, accountNumber, `
		SELECT `+accountColumns+`
		FROM teller.accounts
		WHERE account_number = $1
		FOR UPDATE
	`)
}

func (t *pgTx) getAccountForUpdate(ctx context.Context, accountNumber, query string) (*model.Account, error) {
	account, err := scanAccount(t.tx.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountNotFound(accountNumber, err)
		}
		return nil, mapDBError(err, "Failed to lock account")
	}
	return account, nil
}

// UpdateAccountBalance writes the new balance using optimistic locking on the version column.
// The version is incremented on success.
func (t *pgTx) UpdateAccountBalance(ctx context.Context, account *model.Account) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE teller.accounts
		SET balance = $2, version = version + 1
		WHERE account_number = $1 AND version = $3
	`, account.AccountNumber, account.Balance, account.Version)
	if err != nil {
		return mapDBError(err, "Failed to update balance")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapDBError(err, "Failed to get rows affected")
	}

	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Optimistic locking failure: account '%s' may have been updated by another transaction", account.AccountNumber), nil)
	}

	account.Version++
	return nil
}
