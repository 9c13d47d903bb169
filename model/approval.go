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
	"fmt"

	"github.com/shopspring/decimal"
)

// ApprovalStatus is the state of a transaction in the approval workflow.
type ApprovalStatus string

const (
	StatusApproved        ApprovalStatus = "APPROVED"
	StatusPendingApproval ApprovalStatus = "PENDING_APPROVAL"
	StatusRejected        ApprovalStatus = "REJECTED"
)

// ErrInvalidTransition is returned when a status change is not allowed by the workflow.
type ErrInvalidTransition struct {
	From ApprovalStatus
	To   ApprovalStatus
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("transaction cannot move from %s to %s", e.From, e.To)
}

// IsValid reports whether s is one of the known statuses.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case StatusApproved, StatusPendingApproval, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s ApprovalStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether the workflow allows moving from one status to another.
// The only edges are PENDING_APPROVAL -> APPROVED and PENDING_APPROVAL -> REJECTED.
func CanTransition(from, to ApprovalStatus) bool {
	return from == StatusPendingApproval && to.IsTerminal()
}

// RouteWithdrawal picks the initial status of a withdrawal.
// Amounts strictly above the threshold are held for review.
func RouteWithdrawal(amount, threshold decimal.Decimal) ApprovalStatus {
	if amount.GreaterThan(threshold) {
		return StatusPendingApproval
	}
	return StatusApproved
}

// IsPending reports whether the transaction is awaiting a review decision.
func (transaction *Transaction) IsPending() bool {
	return transaction.Status == StatusPendingApproval
}

// Transition moves the transaction to status `to`, recording the reviewer.
func (transaction *Transaction) Transition(to ApprovalStatus, reviewer string) error {
	if !CanTransition(transaction.Status, to) {
		return ErrInvalidTransition{From: transaction.Status, To: to}
	}
	transaction.Status = to
	transaction.ReviewedBy = ResolveActor(reviewer)
	return nil
}
