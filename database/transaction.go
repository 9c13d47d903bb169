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

const transactionColumns = "transaction_id, account_number, type, amount, performed_by, COALESCE(reviewed_by, ''), status, created_at"

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	txn := &model.Transaction{}
	err := row.Scan(
		&txn.TransactionID,
		&txn.AccountNumber,
		&txn.Type,
		&txn.Amount,
		&txn.PerformedBy,
		&txn.ReviewedBy,
		&txn.Status,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func transactionNotFound(id string, err error) error {
	return apierror.Wrap(err, apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), nil)
}

func (t *pgTx) RecordTransaction(ctx context.Context, txn *model.Transaction) error {
	ctx, span := otel.Tracer("teller.database").Start(ctx, "Saving transaction to db")
	defer span.End()

	var reviewedBy sql.NullString
	if txn.ReviewedBy != "" {
		reviewedBy = sql.NullString{String: txn.ReviewedBy, Valid: true}
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO teller.transactions (transaction_id, account_number, type, amount, performed_by, reviewed_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, txn.TransactionID, txn.AccountNumber, txn.Type, txn.Amount, txn.PerformedBy, reviewedBy, txn.Status, txn.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return mapDBError(err, "Failed to record transaction")
	}
	return nil
}

func (t *pgTx) GetTransactionForUpdate(ctx context.Context, id string) (*model.Transaction, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM teller.transactions
		WHERE transaction_id = $1
		FOR UPDATE
	`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transactionNotFound(id, err)
		}
		return nil, mapDBError(err, "Failed to lock transaction")
	}
	return txn, nil
}

// UpdateTransactionStatus only touches rows still pending review, so a terminal status is never overwritten.
func (t *pgTx) UpdateTransactionStatus(ctx context.Context, txn *model.Transaction) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE teller.transactions
		SET status = $2, reviewed_by = $3
		WHERE transaction_id = $1 AND status = $4
	`, txn.TransactionID, txn.Status, txn.ReviewedBy, model.StatusPendingApproval)
	if err != nil {
		return mapDBError(err, "Failed to update transaction status")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapDBError(err, "Failed to get rows affected")
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Transaction '%s' is no longer pending", txn.TransactionID), nil)
	}
	return nil
}

func (d Datasource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM teller.transactions
		WHERE transaction_id = $1
	`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transactionNotFound(id, err)
		}
		return nil, mapDBError(err, "Failed to retrieve transaction")
	}
	return txn, nil
}

func (d Datasource) GetTransactionsByAccountNumber(ctx context.Context, accountNumber string) ([]model.Transaction, error) {
	return d.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM teller.transactions
		WHERE account_number = $1
		ORDER BY id ASC
	`, accountNumber)
}

func (d Datasource) GetTransactionsByStatus(ctx context.Context, status model.ApprovalStatus) ([]model.Transaction, error) {
	return d.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM teller.transactions
		WHERE status = $1
		ORDER BY id ASC
	`, status)
}

func (d Datasource) GetTransactionsByTimestampRange(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	return d.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM teller.transactions
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY id ASC
	`, from, to)
}

func (d Datasource) GetAllTransactions(ctx context.Context) ([]model.Transaction, error) {
	return d.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM teller.transactions
		ORDER BY id ASC
	`)
}

func (d Datasource) GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	return d.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM teller.transactions
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
}

func (d Datasource) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err, "Failed to retrieve transactions")
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, mapDBError(err, "Failed to scan transaction")
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "Failed to iterate transactions")
	}
	return transactions, nil
}
