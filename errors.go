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
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bankapp/teller/internal/apierror"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
)

func accountNotFound(accountNumber string) error {
	return apierror.Wrap(ErrAccountNotFound, apierror.ErrNotFound, fmt.Sprintf("Account %s not found", accountNumber), nil)
}

func transactionNotFound(id string) error {
	return apierror.Wrap(ErrTransactionNotFound, apierror.ErrNotFound, fmt.Sprintf("Transaction %s not found", id), nil)
}

func insufficientBalance(accountNumber string) error {
	return apierror.Wrap(ErrInsufficientBalance, apierror.ErrInsufficientBalance, fmt.Sprintf("Insufficient balance in account %s", accountNumber), nil)
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apierror.Wrap(ErrInvalidAmount, apierror.ErrInvalidInput, "Amount must be greater than zero", nil)
	}
	return nil
}

func hasCode(err error, code apierror.ErrorCode) bool {
	var apiErr apierror.APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func isNotFound(err error) bool {
	return hasCode(err, apierror.ErrNotFound)
}

func isConflict(err error) bool {
	return hasCode(err, apierror.ErrConflict)
}
