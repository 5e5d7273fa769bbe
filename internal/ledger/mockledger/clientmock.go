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

// Package mockledger provides a testify mock of the ledger client for the
// packages layered above it.
package mockledger

import (
	"context"

	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/stretchr/testify/mock"

	"github.com/cipherbridge/cipherbridge/pkg/types"
)

type Client struct {
	mock.Mock
}

func (m *Client) ChainID() int64 {
	return int64(m.Called().Int(0))
}

func (m *Client) Submitter() ethtypes.Address0xHex {
	return m.Called().Get(0).(ethtypes.Address0xHex)
}

func (m *Client) LedgerTime(ctx context.Context) (types.LedgerTime, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(types.LedgerTime), ret.Error(1)
}

func (m *Client) GetRegistration(ctx context.Context, role types.Role, addr ethtypes.Address0xHex) (*types.Registration, error) {
	ret := m.Called(ctx, role, addr)
	if reg := ret.Get(0); reg != nil {
		return reg.(*types.Registration), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Client) RegisterIdentity(ctx context.Context, role types.Role, fhePublicKey string) error {
	return m.Called(ctx, role, fhePublicKey).Error(0)
}

func (m *Client) StoreRecord(ctx context.Context, record *types.EncryptedRecord) (ethtypes.HexBytes0xPrefix, error) {
	ret := m.Called(ctx, record)
	if txHash := ret.Get(0); txHash != nil {
		return txHash.(ethtypes.HexBytes0xPrefix), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Client) QueryRecords(ctx context.Context, owner ethtypes.Address0xHex, dataType types.DataType) ([]*types.EncryptedRecord, error) {
	ret := m.Called(ctx, owner, dataType)
	if records := ret.Get(0); records != nil {
		return records.([]*types.EncryptedRecord), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Client) CreateTask(ctx context.Context, bank ethtypes.Address0xHex, dataType types.DataType, businessType types.BusinessType) (types.TaskID, error) {
	ret := m.Called(ctx, bank, dataType, businessType)
	return ret.Get(0).(types.TaskID), ret.Error(1)
}

func (m *Client) GetTask(ctx context.Context, id types.TaskID) (*types.Task, error) {
	ret := m.Called(ctx, id)
	if task := ret.Get(0); task != nil {
		return task.(*types.Task), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Client) CompleteTask(ctx context.Context, id types.TaskID, encryptedResult ethtypes.HexBytes0xPrefix) error {
	return m.Called(ctx, id, encryptedResult).Error(0)
}

func (m *Client) PublishTask(ctx context.Context, id types.TaskID, signature ethtypes.HexBytes0xPrefix) error {
	return m.Called(ctx, id, signature).Error(0)
}

func (m *Client) ListTasks(ctx context.Context, party ethtypes.Address0xHex, role types.Role, status types.TaskStatus) ([]*types.Task, error) {
	ret := m.Called(ctx, party, role, status)
	if tasks := ret.Get(0); tasks != nil {
		return tasks.([]*types.Task), ret.Error(1)
	}
	return nil, ret.Error(1)
}
