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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bankapp/teller/model"
)

const (
	dateLayout            = "2006-01-02"
	defaultDailyCountDays = 30
)

// History returns every transaction of an account in insertion order.
func (t *Teller) History(ctx context.Context, accountNumber string) ([]model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "History", trace.WithAttributes(attribute.String("account.number", accountNumber)))
	defer span.End()

	transactions, err := t.datasource.GetTransactionsByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, logAndRecordError(span, "failed to load account history", err)
	}
	return transactions, nil
}

// GetPending returns every transaction awaiting a review decision.
func (t *Teller) GetPending(ctx context.Context) ([]model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "GetPending")
	defer span.End()

	transactions, err := t.datasource.GetTransactionsByStatus(ctx, model.StatusPendingApproval)
	if err != nil {
		return nil, logAndRecordError(span, "failed to load pending transactions", err)
	}
	return transactions, nil
}

// GetRecent returns the newest transactions first. Limits below one are raised to one.
func (t *Teller) GetRecent(ctx context.Context, limit int) ([]model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "GetRecent")
	defer span.End()

	if limit < 1 {
		limit = 1
	}
	span.SetAttributes(attribute.Int("limit", limit))

	transactions, err := t.datasource.GetRecentTransactions(ctx, limit)
	if err != nil {
		return nil, logAndRecordError(span, "failed to load recent transactions", err)
	}
	return transactions, nil
}

// GetByDate returns the transactions created on the calendar day of date, in the ledger time zone.
func (t *Teller) GetByDate(ctx context.Context, date time.Time) ([]model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "GetByDate")
	defer span.End()

	start := t.startOfDay(date)
	span.SetAttributes(attribute.String("date", start.Format(dateLayout)))

	transactions, err := t.datasource.GetTransactionsByTimestampRange(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, logAndRecordError(span, "failed to load transactions by date", err)
	}
	return transactions, nil
}

// GetDailyCounts counts transactions per calendar day between from and to, both inclusive.
// A nil from defaults to 29 days before today and a nil to defaults to today. Days without
// transactions are omitted and the result is sorted by date ascending.
func (t *Teller) GetDailyCounts(ctx context.Context, from, to *time.Time) ([]model.DailyCount, error) {
	ctx, span := tracer.Start(ctx, "GetDailyCounts")
	defer span.End()

	today := t.startOfDay(t.now().In(t.location))
	startDate := today.AddDate(0, 0, -(defaultDailyCountDays - 1))
	if from != nil {
		startDate = t.startOfDay(*from)
	}
	endDate := today
	if to != nil {
		endDate = t.startOfDay(*to)
	}
	span.SetAttributes(
		attribute.String("from", startDate.Format(dateLayout)),
		attribute.String("to", endDate.Format(dateLayout)),
	)

	counts := []model.DailyCount{}
	if startDate.After(endDate) {
		return counts, nil
	}

	transactions, err := t.datasource.GetTransactionsByTimestampRange(ctx, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, logAndRecordError(span, "failed to load transactions for daily counts", err)
	}

	perDay := make(map[string]int64)
	for _, txn := range transactions {
		perDay[txn.CreatedAt.In(t.location).Format(dateLayout)]++
	}

	for date, count := range perDay {
		counts = append(counts, model.DailyCount{Date: date, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Date < counts[j].Date
	})
	return counts, nil
}

// startOfDay returns midnight, in the ledger time zone, of the calendar day of value.
// The calendar day is taken from value as given, so a date parsed in UTC keeps its day.
func (t *Teller) startOfDay(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.location)
}
