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

package teller

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bankapp/teller/database"
	"github.com/bankapp/teller/internal/apierror"
	"github.com/bankapp/teller/model"
)

var tracer = otel.Tracer("teller.ledger")

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	entry := logrus.WithError(err)
	if isNotFound(err) || hasCode(err, apierror.ErrInvalidInput) || hasCode(err, apierror.ErrInsufficientBalance) {
		entry.Warn(msg)
	} else {
		entry.Error(msg)
	}
	return err
}

// lockActiveAccount loads an active account inside the unit of work, translating a missing row.
func lockActiveAccount(ctx context.Context, tx database.Tx, accountNumber string) (*model.Account, error) {
	account, err := tx.GetActiveAccountForUpdate(ctx, accountNumber)
	if err != nil {
		if isNotFound(err) {
			return nil, accountNotFound(accountNumber)
		}
		return nil, err
	}
	return account, nil
}

// Deposit credits amount to an active account and records an APPROVED DEPOSIT.
func (t *Teller) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, actor string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Deposit", trace.WithAttributes(attribute.String("account.number", accountNumber)))
	defer span.End()

	actor = model.ResolveActor(actor)
	if err := validateAmount(amount); err != nil {
		return nil, logAndRecordError(span, "invalid deposit amount", err)
	}

	var txn *model.Transaction
	err := t.execute(ctx, []string{accountNumber}, func(ctx context.Context, tx database.Tx) error {
		account, err := lockActiveAccount(ctx, tx, accountNumber)
		if err != nil {
			return err
		}

		account.Credit(amount)
		if err := tx.UpdateAccountBalance(ctx, account); err != nil {
			return err
		}

		txn = model.NewTransaction(accountNumber, model.TypeDeposit, amount, actor, model.StatusApproved, t.now())
		return tx.RecordTransaction(ctx, txn)
	})
	if err != nil {
		return nil, logAndRecordError(span, "deposit failed", err)
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": txn.TransactionID,
		"account":        accountNumber,
		"amount":         amount.String(),
		"actor":          actor,
	}).Info("deposit recorded")

	t.audit(ctx, actor, model.ActionDeposit, accountNumber, "amount="+amount.String())
	return txn, nil
}

// Withdraw debits an active account. The balance must cover the amount even when the
// withdrawal is routed for approval; amounts above the threshold are recorded as
// PENDING_APPROVAL and leave the balance untouched until approved.
func (t *Teller) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, actor string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Withdraw", trace.WithAttributes(attribute.String("account.number", accountNumber)))
	defer span.End()

	actor = model.ResolveActor(actor)
	if err := validateAmount(amount); err != nil {
		return nil, logAndRecordError(span, "invalid withdrawal amount", err)
	}

	var txn *model.Transaction
	err := t.execute(ctx, []string{accountNumber}, func(ctx context.Context, tx database.Tx) error {
		account, err := lockActiveAccount(ctx, tx, accountNumber)
		if err != nil {
			return err
		}

		if !account.HasFunds(amount) {
			return insufficientBalance(accountNumber)
		}

		status := model.RouteWithdrawal(amount, t.threshold)
		if status == model.StatusApproved {
			if err := account.Debit(amount); err != nil {
				return insufficientBalance(accountNumber)
			}
			if err := tx.UpdateAccountBalance(ctx, account); err != nil {
				return err
			}
		}

		txn = model.NewTransaction(accountNumber, model.TypeWithdraw, amount, actor, status, t.now())
		return tx.RecordTransaction(ctx, txn)
	})
	if err != nil {
		return nil, logAndRecordError(span, "withdrawal failed", err)
	}

	span.SetAttributes(attribute.String("transaction.status", string(txn.Status)))
	logrus.WithFields(logrus.Fields{
		"transaction_id": txn.TransactionID,
		"account":        accountNumber,
		"amount":         amount.String(),
		"status":         txn.Status,
		"actor":          actor,
	}).Info("withdrawal recorded")

	t.audit(ctx, actor, model.ActionWithdraw, accountNumber, "amount="+amount.String()+",status="+string(txn.Status))
	return txn, nil
}

// Transfer moves amount between two active accounts in one unit of work, producing an APPROVED
// WITHDRAW on the source and an APPROVED DEPOSIT on the destination. Transfers are never
// routed for approval. A transfer to the same account leaves its balance unchanged but still
// records both legs.
func (t *Teller) Transfer(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal, actor string) (*model.Transfer, error) {
	ctx, span := tracer.Start(ctx, "Transfer", trace.WithAttributes(
		attribute.String("account.from", fromAccount),
		attribute.String("account.to", toAccount),
	))
	defer span.End()

	actor = model.ResolveActor(actor)
	if err := validateAmount(amount); err != nil {
		return nil, logAndRecordError(span, "invalid transfer amount", err)
	}

	var result *model.Transfer
	err := t.execute(ctx, []string{fromAccount, toAccount}, func(ctx context.Context, tx database.Tx) error {
		accounts, err := lockAccountsInOrder(ctx, tx, fromAccount, toAccount)
		if err != nil {
			return err
		}
		source, destination := accounts[fromAccount], accounts[toAccount]

		if !source.HasFunds(amount) {
			return insufficientBalance(fromAccount)
		}
		if err := source.Debit(amount); err != nil {
			return insufficientBalance(fromAccount)
		}
		destination.Credit(amount)

		for _, account := range sortedAccounts(accounts) {
			if err := tx.UpdateAccountBalance(ctx, account); err != nil {
				return err
			}
		}

		now := t.now()
		debit := model.NewTransaction(fromAccount, model.TypeWithdraw, amount, actor, model.StatusApproved, now)
		credit := model.NewTransaction(toAccount, model.TypeDeposit, amount, actor, model.StatusApproved, now)
		if err := tx.RecordTransaction(ctx, debit); err != nil {
			return err
		}
		if err := tx.RecordTransaction(ctx, credit); err != nil {
			return err
		}

		result = &model.Transfer{Debit: *debit, Credit: *credit}
		return nil
	})
	if err != nil {
		return nil, logAndRecordError(span, "transfer failed", err)
	}

	logrus.WithFields(logrus.Fields{
		"debit_id":  result.Debit.TransactionID,
		"credit_id": result.Credit.TransactionID,
		"from":      fromAccount,
		"to":        toAccount,
		"amount":    amount.String(),
		"actor":     actor,
	}).Info("transfer recorded")

	t.audit(ctx, actor, model.ActionTransfer, fromAccount, "to="+toAccount+",amount="+amount.String())
	return result, nil
}

// lockAccountsInOrder row-locks the accounts sorted by number. A missing source is reported
// before a missing destination regardless of lock order.
func lockAccountsInOrder(ctx context.Context, tx database.Tx, fromAccount, toAccount string) (map[string]*model.Account, error) {
	numbers := []string{fromAccount, toAccount}
	if fromAccount == toAccount {
		numbers = numbers[:1]
	}
	sort.Strings(numbers)

	accounts := make(map[string]*model.Account, len(numbers))
	for _, number := range numbers {
		account, err := tx.GetActiveAccountForUpdate(ctx, number)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		accounts[number] = account
	}

	for _, number := range []string{fromAccount, toAccount} {
		if _, ok := accounts[number]; !ok {
			return nil, accountNotFound(number)
		}
	}
	return accounts, nil
}

func sortedAccounts(accounts map[string]*model.Account) []*model.Account {
	sorted := make([]*model.Account, 0, len(accounts))
	for _, account := range accounts {
		sorted = append(sorted, account)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AccountNumber < sorted[j].AccountNumber
	})
	return sorted
}

// Approve moves a PENDING_APPROVAL withdrawal to APPROVED and debits the account, re-checking
// the balance at approval time. A transaction that is not pending is returned unchanged.
func (t *Teller) Approve(ctx context.Context, transactionID string, actor string) (*model.Transaction, error) {
	return t.review(ctx, transactionID, model.StatusApproved, actor)
}

// Reject moves a PENDING_APPROVAL withdrawal to REJECTED without touching the balance.
// A transaction that is not pending is returned unchanged.
func (t *Teller) Reject(ctx context.Context, transactionID string, actor string) (*model.Transaction, error) {
	return t.review(ctx, transactionID, model.StatusRejected, actor)
}

func (t *Teller) review(ctx context.Context, transactionID string, decision model.ApprovalStatus, actor string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Review transaction", trace.WithAttributes(
		attribute.String("transaction.id", transactionID),
		attribute.String("transaction.decision", string(decision)),
	))
	defer span.End()

	actor = model.ResolveActor(actor)

	var lockKeys []string
	if t.redis != nil {
		current, err := t.GetTransaction(ctx, transactionID)
		if err != nil {
			return nil, logAndRecordError(span, "review failed", err)
		}
		lockKeys = []string{current.AccountNumber}
	}

	var (
		txn     *model.Transaction
		changed bool
	)
	err := t.execute(ctx, lockKeys, func(ctx context.Context, tx database.Tx) error {
		changed = false
		locked, err := tx.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			if isNotFound(err) {
				return transactionNotFound(transactionID)
			}
			return err
		}
		txn = locked

		if !txn.IsPending() {
			return nil
		}

		if decision == model.StatusApproved {
			account, err := tx.GetAccountForUpdate(ctx, txn.AccountNumber)
			if err != nil {
				if isNotFound(err) {
					return accountNotFound(txn.AccountNumber)
				}
				return err
			}
			if !account.HasFunds(txn.Amount) {
				return insufficientBalance(txn.AccountNumber)
			}
			if err := account.Debit(txn.Amount); err != nil {
				return insufficientBalance(txn.AccountNumber)
			}
			if err := tx.UpdateAccountBalance(ctx, account); err != nil {
				return err
			}
		}

		if err := txn.Transition(decision, actor); err != nil {
			return apierror.Wrap(err, apierror.ErrConflict, err.Error(), nil)
		}
		if err := tx.UpdateTransactionStatus(ctx, txn); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, logAndRecordError(span, "review failed", err)
	}

	if !changed {
		logrus.WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"status":         txn.Status,
		}).Info("transaction already reviewed, nothing to do")
		return txn, nil
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"account":        txn.AccountNumber,
		"status":         txn.Status,
		"actor":          actor,
	}).Info("transaction reviewed")

	action := model.ActionApprove
	if decision == model.StatusRejected {
		action = model.ActionReject
	}
	t.audit(ctx, actor, action, txn.AccountNumber, "txnId="+transactionID)
	return txn, nil
}

// GetTransaction returns a committed transaction by id.
func (t *Teller) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	txn, err := t.datasource.GetTransaction(ctx, transactionID)
	if err != nil {
		if isNotFound(err) {
			return nil, transactionNotFound(transactionID)
		}
		return nil, err
	}
	return txn, nil
}
