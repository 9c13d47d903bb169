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
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var errNegativeBalance = errors.New("balance cannot go below zero")

// Account is a customer account as held by the account store.
// The engine only keeps a reference to it for the duration of one operation.
type Account struct {
	AccountNumber string          `json:"account_number"`
	HolderName    string          `json:"holder_name"`
	PanNumber     string          `json:"pan_number"`
	Email         string          `json:"email"`
	MobileNumber  string          `json:"mobile_number"`
	Balance       decimal.Decimal `json:"balance"`
	Active        bool            `json:"active"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HasFunds reports whether the account balance covers amount.
func (a *Account) HasFunds(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// Debit subtracts amount from the balance. The balance is left untouched when it would go negative.
func (a *Account) Debit(amount decimal.Decimal) error {
	if !a.HasFunds(amount) {
		return errNegativeBalance
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}
