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

import "time"

const (
	ActionDeposit  = "DEPOSIT"
	ActionWithdraw = "WITHDRAW"
	ActionTransfer = "TRANSFER"
	ActionApprove  = "APPROVE"
	ActionReject   = "REJECT"
)

// AuditEntry describes one successful ledger mutation for the audit trail.
type AuditEntry struct {
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	Details    string    `json:"details"`
	OccurredAt time.Time `json:"occurred_at"`
}
