// Copyright © 2026 CipherBridge Contributors
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"context"
	"strconv"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"

	"github.com/cipherbridge/cipherbridge/internal/msgs"
)

// TaskID is the ledger-assigned task identifier. Its decimal string form doubles as
// the idempotency/correlation token passed to the cipher-compute service, so retried
// compute requests for the same task are recognized as equivalent.
type TaskID uint64

func (id TaskID) String() string {
	return strconv.FormatUint((uint64)(id), 10)
}

func ParseTaskID(ctx context.Context, s string) (TaskID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, i18n.NewError(ctx, msgs.MsgTypesInvalidTaskID, s)
	}
	return TaskID(v), nil
}

// TaskStatus is derived from the two on-chain status bits. There is no on-chain
// cancel/decline state - a task that cannot be serviced stays pending. StatusExpired
// is a client-side derivation for list views only (every matching record has passed
// its expiry), never written back to the ledger.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusPublished TaskStatus = "published"
	StatusExpired   TaskStatus = "expired"
)

// Task is a single cross-party computation request, authoritative on the ledger.
// Created by the client, completed by the assigned bank, published by the client.
type Task struct {
	ID              TaskID                    `json:"id"`
	Client          ethtypes.Address0xHex     `json:"client"`
	Bank            ethtypes.Address0xHex     `json:"bank"`
	DataType        DataType                  `json:"dataType"`
	BusinessType    BusinessType              `json:"businessType"`
	Completed       bool                      `json:"isCompleted"`
	Published       bool                      `json:"isPublished"`
	EncryptedResult ethtypes.HexBytes0xPrefix `json:"encryptedResult,omitempty"`
	Signature       ethtypes.HexBytes0xPrefix `json:"signature,omitempty"`
	CreatedAt       LedgerTime                `json:"createdAt"`
}

func (t *Task) Status() TaskStatus {
	switch {
	case t.Published:
		return StatusPublished
	case t.Completed:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// EncryptedRecord is an encrypted attribute anchored on the ledger, immutable once
// written. Reads must check Expired against ledger time, not wall-clock time.
type EncryptedRecord struct {
	Owner      ethtypes.Address0xHex     `json:"owner"`
	Producer   ethtypes.Address0xHex     `json:"producer"`
	DataType   DataType                  `json:"dataType"`
	Ciphertext ethtypes.HexBytes0xPrefix `json:"ciphertext"`
	Expiry     LedgerTime                `json:"expiry"`
}

func (r *EncryptedRecord) Expired(at LedgerTime) bool {
	return at.After(r.Expiry)
}

// Role scopes registry lookups and task list queries to one side of the protocol.
type Role string

const (
	RoleClient Role = "client"
	RoleBank   Role = "bank"
)

func (r Role) Validate(ctx context.Context) (Role, error) {
	switch r {
	case RoleClient, RoleBank:
		return r, nil
	default:
		return "", i18n.NewError(ctx, msgs.MsgRegistrationInvalidRole, r)
	}
}

// Registration is a wallet-bound identity paired with its homomorphic-encryption
// public key, registered once per role. Inactive registrations must not be treated
// as valid counterparties even when a task still references them.
type Registration struct {
	Address      ethtypes.Address0xHex `json:"address"`
	FHEPublicKey string                `json:"fhePublicKey"`
	Active       bool                  `json:"isActive"`
}
