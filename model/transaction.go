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

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction relative to its account.
type TransactionType string

const (
	TypeDeposit  TransactionType = "DEPOSIT"
	TypeWithdraw TransactionType = "WITHDRAW"
)

// Transaction is the immutable record backing a balance change.
// Only Status and ReviewedBy change after creation, and only out of PENDING_APPROVAL.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	AccountNumber string          `json:"account_number"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	PerformedBy   string          `json:"performed_by"`
	ReviewedBy    string          `json:"reviewed_by,omitempty"`
	Status        ApprovalStatus  `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewTransaction builds a transaction record with a fresh id.
func NewTransaction(accountNumber string, txnType TransactionType, amount decimal.Decimal, actor string, status ApprovalStatus, createdAt time.Time) *Transaction {
	return &Transaction{
		TransactionID: GenerateUUIDWithSuffix("txn"),
		AccountNumber: accountNumber,
		Type:          txnType,
		Amount:        amount,
		PerformedBy:   ResolveActor(actor),
		Status:        status,
		CreatedAt:     createdAt,
	}
}

// Transfer holds both legs of a transfer. The legs share no identifier.
type Transfer struct {
	Debit  Transaction `json:"debit"`
	Credit Transaction `json:"credit"`
}

// DailyCount is the number of transactions created on one calendar day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
