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
	"time"

	"github.com/bankapp/teller/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	unitOfWork  // Interface for atomic, multi-record mutations
	account     // Interface for account-related operations
	transaction // Interface for transaction-related operations
}

// TxFunc is the body of a unit of work. Returning an error rolls back every write made through tx.
type TxFunc func(ctx context.Context, tx Tx) error

// unitOfWork runs a function atomically against the store.
type unitOfWork interface {
	WithinTransaction(ctx context.Context, fn TxFunc) error // Runs fn in one transaction, committing only if it returns nil
}

// Tx defines the operations available inside a unit of work.
// Reads through Tx lock the returned rows until the unit of work ends.
type Tx interface {
	GetActiveAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) // Locks an active account by number
	GetAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error)       // Locks an account by number regardless of status
	UpdateAccountBalance(ctx context.Context, account *model.Account) error                      // Persists the balance, guarded by the account version
	RecordTransaction(ctx context.Context, txn *model.Transaction) error                         // Saves a new transaction record
	GetTransactionForUpdate(ctx context.Context, id string) (*model.Transaction, error)          // Locks a transaction by ID
	UpdateTransactionStatus(ctx context.Context, txn *model.Transaction) error                   // Persists status and reviewer of a transaction
}

// account defines methods for handling accounts.
type account interface {
	CreateAccount(ctx context.Context, account model.Account) (model.Account, error)            // Creates a new account
	GetActiveAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error) // Retrieves an active account by its number
}

// transaction defines methods for reading committed transactions.
type transaction interface {
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)                             // Retrieves a transaction by ID
	GetTransactionsByAccountNumber(ctx context.Context, accountNumber string) ([]model.Transaction, error) // Retrieves an account's transactions in insertion order
	GetTransactionsByStatus(ctx context.Context, status model.ApprovalStatus) ([]model.Transaction, error) // Retrieves transactions with the given status
	GetTransactionsByTimestampRange(ctx context.Context, from, to time.Time) ([]model.Transaction, error)  // Retrieves transactions created in [from, to)
	GetAllTransactions(ctx context.Context) ([]model.Transaction, error)                                   // Retrieves all transactions
	GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)                     // Retrieves the newest transactions first
}
