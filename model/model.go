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
	"strings"

	"github.com/google/uuid"
)

// SystemActor is recorded as the performer of an operation when the caller supplies no identity.
const SystemActor = "SYSTEM"

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix, e.g. txn_<uuid>.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// GenerateAccountNumber returns a new account number in the ACC-xxxxxxxx format.
func GenerateAccountNumber() string {
	return "ACC-" + strings.ToUpper(uuid.New().String()[:8])
}

// ResolveActor returns the actor to attribute an operation to, falling back to SystemActor.
func ResolveActor(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return SystemActor
	}
	return actor
}
