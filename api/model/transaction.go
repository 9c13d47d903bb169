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

const DateLayout = "2006-01-02"

type Deposit struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

type Withdraw struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

type Transfer struct {
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
}

// DailyCountsQuery holds the optional from/to bounds of a daily count report.
type DailyCountsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// Range parses the bounds. Missing bounds are returned as nil.
func (q DailyCountsQuery) Range() (*time.Time, *time.Time, error) {
	from, err := parseOptionalDate(q.From)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseOptionalDate(q.To)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	date, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
