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

// Package memory provides an in-process implementation of database.IDataSource.
// Units of work are serialized by a store-wide lock and their writes become visible only on commit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bankapp/teller/database"
	"github.com/bankapp/teller/internal/apierror"
	"github.com/bankapp/teller/model"
)

type Store struct {
	mu           sync.RWMutex
	accounts     map[string]model.Account
	transactions []model.Transaction
	index        map[string]int
}

var _ database.IDataSource = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts: make(map[string]model.Account),
		index:    make(map[string]int),
	}
}

func accountNotFound(accountNumber string) error {
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with number '%s' not found", accountNumber), nil)
}

func transactionNotFound(id string) error {
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), nil)
}

func (s *Store) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}
	if account.AccountNumber == "" {
		account.AccountNumber = model.GenerateAccountNumber()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	account.Active = true

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountNumber]; exists {
		return model.Account{}, apierror.NewAPIError(apierror.ErrConflict, "Record already exists", nil)
	}
	s.accounts[account.AccountNumber] = account
	return account, nil
}

// DeactivateAccount soft deletes an account. Engine lookups ignore inactive accounts.
func (s *Store) DeactivateAccount(ctx context.Context, accountNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountNumber]
	if !ok {
		return accountNotFound(accountNumber)
	}
	account.Active = false
	s.accounts[accountNumber] = account
	return nil
}

func (s *Store) GetActiveAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountNumber]
	if !ok || !account.Active {
		return nil, accountNotFound(accountNumber)
	}
	return &account, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return nil, transactionNotFound(id)
	}
	txn := s.transactions[pos]
	return &txn, nil
}

func (s *Store) GetTransactionsByAccountNumber(ctx context.Context, accountNumber string) ([]model.Transaction, error) {
	return s.filter(func(txn model.Transaction) bool {
		return txn.AccountNumber == accountNumber
	}), nil
}

func (s *Store) GetTransactionsByStatus(ctx context.Context, status model.ApprovalStatus) ([]model.Transaction, error) {
	return s.filter(func(txn model.Transaction) bool {
		return txn.Status == status
	}), nil
}

func (s *Store) GetTransactionsByTimestampRange(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	return s.filter(func(txn model.Transaction) bool {
		return !txn.CreatedAt.Before(from) && txn.CreatedAt.Before(to)
	}), nil
}

func (s *Store) GetAllTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.filter(func(model.Transaction) bool { return true }), nil
}

func (s *Store) GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	all := s.filter(func(model.Transaction) bool { return true })
	// later insertions win ties on created_at
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) filter(keep func(model.Transaction) bool) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Transaction{}
	for _, txn := range s.transactions {
		if keep(txn) {
			out = append(out, txn)
		}
	}
	return out
}
