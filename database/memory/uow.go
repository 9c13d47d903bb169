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

package memory

import (
	"context"
	"fmt"

	"github.com/bankapp/teller/database"
	"github.com/bankapp/teller/internal/apierror"
	"github.com/bankapp/teller/model"
)

// WithinTransaction holds the store's write lock for the whole unit of work. Writes are staged
// on the unit and applied only when fn returns nil, so readers never observe partial work.
func (s *Store) WithinTransaction(ctx context.Context, fn database.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uow := &unitOfWork{
		store:    s,
		accounts: make(map[string]model.Account),
		updated:  make(map[string]model.Transaction),
	}
	if err := fn(ctx, uow); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	uow.commit()
	return nil
}

type unitOfWork struct {
	store    *Store
	accounts map[string]model.Account
	created  []model.Transaction
	updated  map[string]model.Transaction
}

func (u *unitOfWork) account(accountNumber string) (model.Account, bool) {
	if account, ok := u.accounts[accountNumber]; ok {
		return account, true
	}
	account, ok := u.store.accounts[accountNumber]
	return account, ok
}

func (u *unitOfWork) GetActiveAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	account, ok := u.account(accountNumber)
	if !ok || !account.Active {
		return nil, accountNotFound(accountNumber)
	}
	return &account, nil
}

func (u *unitOfWork) GetAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	account, ok := u.account(accountNumber)
	if !ok {
		return nil, accountNotFound(accountNumber)
	}
	return &account, nil
}

func (u *unitOfWork) UpdateAccountBalance(ctx context.Context, account *model.Account) error {
	current, ok := u.account(account.AccountNumber)
	if !ok {
		return accountNotFound(account.AccountNumber)
	}
	if current.Version != account.Version {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Optimistic locking failure: account '%s' may have been updated by another transaction", account.AccountNumber), nil)
	}
	if account.Balance.IsNegative() {
		return apierror.NewAPIError(apierror.ErrBadRequest, "Failed to update balance", nil)
	}

	current.Balance = account.Balance
	current.Version++
	u.accounts[account.AccountNumber] = current
	account.Version = current.Version
	return nil
}

func (u *unitOfWork) transaction(id string) (model.Transaction, bool) {
	if txn, ok := u.updated[id]; ok {
		return txn, true
	}
	for _, txn := range u.created {
		if txn.TransactionID == id {
			return txn, true
		}
	}
	pos, ok := u.store.index[id]
	if !ok {
		return model.Transaction{}, false
	}
	return u.store.transactions[pos], true
}

func (u *unitOfWork) RecordTransaction(ctx context.Context, txn *model.Transaction) error {
	if _, exists := u.transaction(txn.TransactionID); exists {
		return apierror.NewAPIError(apierror.ErrConflict, "Record already exists", nil)
	}
	if _, ok := u.account(txn.AccountNumber); !ok {
		return apierror.NewAPIError(apierror.ErrBadRequest, "Failed to record transaction", nil)
	}
	u.created = append(u.created, *txn)
	return nil
}

func (u *unitOfWork) GetTransactionForUpdate(ctx context.Context, id string) (*model.Transaction, error) {
	txn, ok := u.transaction(id)
	if !ok {
		return nil, transactionNotFound(id)
	}
	return &txn, nil
}

func (u *unitOfWork) UpdateTransactionStatus(ctx context.Context, txn *model.Transaction) error {
	current, ok := u.transaction(txn.TransactionID)
	if !ok {
		return transactionNotFound(txn.TransactionID)
	}
	if !current.IsPending() {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Transaction '%s' is no longer pending", txn.TransactionID), nil)
	}
	current.Status = txn.Status
	current.ReviewedBy = txn.ReviewedBy
	u.updated[txn.TransactionID] = current
	return nil
}

// commit must be called with the store's write lock held.
func (u *unitOfWork) commit() {
	s := u.store
	for number, account := range u.accounts {
		s.accounts[number] = account
	}
	for _, txn := range u.created {
		s.index[txn.TransactionID] = len(s.transactions)
		s.transactions = append(s.transactions, txn)
	}
	for id, txn := range u.updated {
		if pos, ok := s.index[id]; ok {
			s.transactions[pos] = txn
		}
	}
}
