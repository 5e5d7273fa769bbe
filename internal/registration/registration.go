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

// Package registration onboards an identity: issues its FHE keypair from the
// cipher-compute service and registers the wallet address with the FHE public
// key in the on-chain registry for its role.
package registration

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/cipherbridge/cipherbridge/internal/fheclient"
	"github.com/cipherbridge/cipherbridge/internal/ledger"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

type Manager interface {
	// EnsureRegistered registers this wallet for the role if it is not already
	// actively registered. Safe to call repeatedly - an existing active
	// registration is returned unchanged with no ledger write.
	EnsureRegistered(ctx context.Context, role types.Role) (*types.Registration, error)
}

type manager struct {
	ledger ledger.Client
	fhe    fheclient.FHEClient
}

func NewManager(lc ledger.Client, fhe fheclient.FHEClient) Manager {
	return &manager{ledger: lc, fhe: fhe}
}

func (m *manager) EnsureRegistered(ctx context.Context, role types.Role) (*types.Registration, error) {
	role, err := role.Validate(ctx)
	if err != nil {
		return nil, err
	}
	addr := m.ledger.Submitter()

	existing, err := m.ledger.GetRegistration(ctx, role, addr)
	if err != nil && !ledger.IsIdentityNotFound(err) {
		return nil, err
	}
	if existing != nil && existing.Active {
		log.L(ctx).Debugf("%s already registered as %s", addr, role)
		return existing, nil
	}

	// Key issuance is idempotent on the service side, so a crash between key
	// issuance and the registry write is safe to re-run
	keys, err := m.fhe.GenerateKeys(ctx, addr.String())
	if err != nil {
		return nil, err
	}
	if err := m.ledger.RegisterIdentity(ctx, role, keys.FHEPublicKey); err != nil {
		return nil, err
	}
	log.L(ctx).Infof("Registered %s in the %s registry", addr, role)
	return &types.Registration{
		Address:      addr,
		FHEPublicKey: keys.FHEPublicKey,
		Active:       true,
	}, nil
}
