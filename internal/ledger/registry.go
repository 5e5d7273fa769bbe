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

package ledger

import (
	"context"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"

	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

func (lc *ledgerClient) registryFor(role types.Role) *boundContract {
	if role == types.RoleBank {
		return lc.bankRegistry
	}
	return lc.clientRegistry
}

type registrationWire struct {
	FHEPublicKey string `json:"fhePublicKey"`
	IsActive     bool   `json:"isActive"`
}

// GetRegistration looks an identity up in the registry for its role. A missing
// registration and a deactivated one are distinct outcomes - callers that need
// an active counterparty must still check Active on the result.
func (lc *ledgerClient) GetRegistration(ctx context.Context, role types.Role, addr ethtypes.Address0xHex) (*types.Registration, error) {
	role, err := role.Validate(ctx)
	if err != nil {
		return nil, err
	}
	var out registrationWire
	input := map[string]any{"account": addr.String()}
	if err := lc.call(ctx, lc.registryFor(role), "getRegistration", input, &out); err != nil {
		return nil, err
	}
	if out.FHEPublicKey == "" {
		return nil, i18n.NewError(ctx, msgs.MsgLedgerIdentityNotFound, addr, role)
	}
	return &types.Registration{
		Address:      addr,
		FHEPublicKey: out.FHEPublicKey,
		Active:       out.IsActive,
	}, nil
}

// RegisterIdentity registers the wallet behind this client in the registry for
// the given role. Registering an already-active identity is an error so that
// callers can make onboarding idempotent with a read-before-write.
func (lc *ledgerClient) RegisterIdentity(ctx context.Context, role types.Role, fhePublicKey string) error {
	role, err := role.Validate(ctx)
	if err != nil {
		return err
	}
	addr := lc.wallet.Address()
	existing, err := lc.GetRegistration(ctx, role, addr)
	if err != nil && !IsIdentityNotFound(err) {
		return err
	}
	if existing != nil && existing.Active {
		return i18n.NewError(ctx, msgs.MsgLedgerAlreadyRegistered, addr, role)
	}
	input := map[string]any{"fhePublicKey": fhePublicKey}
	receipt, err := lc.sendAndConfirm(ctx, lc.registryFor(role), "register", input)
	if err != nil {
		return err
	}
	log.L(ctx).Infof("Registered %s as %s (tx=%s)", addr, role, receipt.TransactionHash)
	return nil
}

// IsIdentityNotFound identifies lookups of identities never registered for the role
func IsIdentityNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CB010109")
}
