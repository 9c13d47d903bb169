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

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bankapp/teller/database"
	"github.com/bankapp/teller/model"
)

// MockDataSource is a mock implementation of the IDataSource interface.
// WithinTransaction invokes the unit of work with Tx unless an error is configured for it.
type MockDataSource struct {
	mock.Mock
	Tx *MockTx
}

var _ database.IDataSource = (*MockDataSource)(nil)

func NewMockDataSource() *MockDataSource {
	return &MockDataSource{Tx: new(MockTx)}
}

// Unit of work

func (m *MockDataSource) WithinTransaction(ctx context.Context, fn database.TxFunc) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Tx)
}

// Account methods

func (m *MockDataSource) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockDataSource) GetActiveAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	args := m.Called(ctx, accountNumber)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

// Transaction methods

func (m *MockDataSource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	txn, _ := args.Get(0).(*model.Transaction)
	return txn, args.Error(1)
}

func (m *MockDataSource) GetTransactionsByAccountNumber(ctx context.Context, accountNumber string) ([]model.Transaction, error) {
	args := m.Called(ctx, accountNumber)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockDataSource) GetTransactionsByStatus(ctx context.Context, status model.ApprovalStatus) ([]model.Transaction, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockDataSource) GetTransactionsByTimestampRange(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockDataSource) GetAllTransactions(ctx context.Context) ([]model.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockDataSource) GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

// MockTx is a mock implementation of the database.Tx interface
type MockTx struct {
	mock.Mock
}

var _ database.Tx = (*MockTx)(nil)

func (m *MockTx) GetActiveAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	args := m.Called(ctx, accountNumber)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

func (m *MockTx) GetAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	args := m.Called(ctx, accountNumber)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

func (m *MockTx) UpdateAccountBalance(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockTx) RecordTransaction(ctx context.Context, txn *model.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTx) GetTransactionForUpdate(ctx context.Context, id string) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	txn, _ := args.Get(0).(*model.Transaction)
	return txn, args.Error(1)
}

func (m *MockTx) UpdateTransactionStatus(ctx context.Context, txn *model.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}
