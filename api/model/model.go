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

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var errInvalidDate = errors.New("please format the date as 'YYYY-MM-DD' (e.g., 2024-04-22)")

func positiveAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("invalid type for amount")
	}
	if !amount.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func (d *Deposit) ValidateDeposit() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.AccountNumber, validation.Required),
		validation.Field(&d.Amount, validation.By(positiveAmount)),
	)
}

func (w *Withdraw) ValidateWithdraw() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.AccountNumber, validation.Required),
		validation.Field(&w.Amount, validation.By(positiveAmount)),
	)
}

func (t *Transfer) ValidateTransfer() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.FromAccount, validation.Required),
		validation.Field(&t.ToAccount, validation.Required),
		validation.Field(&t.Amount, validation.By(positiveAmount)),
	)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return date, nil
}
