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

// Package mockfhe provides a testify mock of the cipher-compute client.
package mockfhe

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cipherbridge/cipherbridge/internal/fheclient"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

type Client struct {
	mock.Mock
}

func (m *Client) GenerateKeys(ctx context.Context, walletKey string) (*fheclient.FHEKeys, error) {
	ret := m.Called(ctx, walletKey)
	if keys := ret.Get(0); keys != nil {
		return keys.(*fheclient.FHEKeys), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Client) GetPublicKey(ctx context.Context, walletKey string) (string, error) {
	ret := m.Called(ctx, walletKey)
	return ret.String(0), ret.Error(1)
}

func (m *Client) Encrypt(ctx context.Context, walletKey string, dataType types.DataType, value int64) (string, error) {
	ret := m.Called(ctx, walletKey, dataType, value)
	return ret.String(0), ret.Error(1)
}

func (m *Client) Compute(ctx context.Context, walletKey string, taskID types.TaskID, dataType types.DataType, encryptedValues []string) (string, error) {
	ret := m.Called(ctx, walletKey, taskID, dataType, encryptedValues)
	return ret.String(0), ret.Error(1)
}

func (m *Client) Decrypt(ctx context.Context, walletKey string, dataType types.DataType, encryptedValue string) (int64, error) {
	ret := m.Called(ctx, walletKey, dataType, encryptedValue)
	return ret.Get(0).(int64), ret.Error(1)
}
