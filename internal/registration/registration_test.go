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

package registration

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cipherbridge/cipherbridge/internal/fheclient"
	"github.com/cipherbridge/cipherbridge/internal/fheclient/mockfhe"
	"github.com/cipherbridge/cipherbridge/internal/ledger/mockledger"
	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

var testIdentity = *ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641")

func newTestManager() (Manager, *mockledger.Client, *mockfhe.Client) {
	mLedger := &mockledger.Client{}
	mFHE := &mockfhe.Client{}
	mLedger.On("Submitter").Return(testIdentity)
	return NewManager(mLedger, mFHE), mLedger, mFHE
}

func TestEnsureRegisteredBadRole(t *testing.T) {
	m, _, _ := newTestManager()
	_, err := m.EnsureRegistered(context.Background(), "auditor")
	assert.Regexp(t, "CB010700", err)
}

func TestEnsureRegisteredAlreadyActive(t *testing.T) {
	m, mLedger, mFHE := newTestManager()
	mLedger.On("GetRegistration", mock.Anything, types.RoleClient, testIdentity).Return(&types.Registration{
		Address:      testIdentity,
		FHEPublicKey: "fhe-pub-existing",
		Active:       true,
	}, nil)

	reg, err := m.EnsureRegistered(context.Background(), types.RoleClient)
	assert.NoError(t, err)
	assert.Equal(t, "fhe-pub-existing", reg.FHEPublicKey)
	mFHE.AssertNotCalled(t, "GenerateKeys", mock.Anything, mock.Anything)
	mLedger.AssertNotCalled(t, "RegisterIdentity", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureRegisteredFirstTime(t *testing.T) {
	m, mLedger, mFHE := newTestManager()
	mLedger.On("GetRegistration", mock.Anything, types.RoleBank, testIdentity).
		Return(nil, i18n.NewError(context.Background(), msgs.MsgLedgerIdentityNotFound, testIdentity, types.RoleBank))
	mFHE.On("GenerateKeys", mock.Anything, testIdentity.String()).Return(&fheclient.FHEKeys{
		FHEPublicKey: "fhe-pub-new",
		ClientKey:    "fhe-client-new",
	}, nil)
	mLedger.On("RegisterIdentity", mock.Anything, types.RoleBank, "fhe-pub-new").Return(nil)

	reg, err := m.EnsureRegistered(context.Background(), types.RoleBank)
	assert.NoError(t, err)
	assert.Equal(t, testIdentity, reg.Address)
	assert.Equal(t, "fhe-pub-new", reg.FHEPublicKey)
	assert.True(t, reg.Active)
	mLedger.AssertExpectations(t)
}

func TestEnsureRegisteredLookupFail(t *testing.T) {
	m, mLedger, _ := newTestManager()
	mLedger.On("GetRegistration", mock.Anything, types.RoleClient, testIdentity).Return(nil, fmt.Errorf("pop"))

	_, err := m.EnsureRegistered(context.Background(), types.RoleClient)
	assert.Regexp(t, "pop", err)
}

func TestEnsureRegisteredKeyIssuanceFail(t *testing.T) {
	m, mLedger, mFHE := newTestManager()
	mLedger.On("GetRegistration", mock.Anything, types.RoleClient, testIdentity).
		Return(nil, i18n.NewError(context.Background(), msgs.MsgLedgerIdentityNotFound, testIdentity, types.RoleClient))
	mFHE.On("GenerateKeys", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("pop"))

	_, err := m.EnsureRegistered(context.Background(), types.RoleClient)
	assert.Regexp(t, "pop", err)
	mLedger.AssertNotCalled(t, "RegisterIdentity", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureRegisteredWriteFail(t *testing.T) {
	m, mLedger, mFHE := newTestManager()
	mLedger.On("GetRegistration", mock.Anything, types.RoleClient, testIdentity).
		Return(nil, i18n.NewError(context.Background(), msgs.MsgLedgerIdentityNotFound, testIdentity, types.RoleClient))
	mFHE.On("GenerateKeys", mock.Anything, mock.Anything).Return(&fheclient.FHEKeys{FHEPublicKey: "fhe-pub-new"}, nil)
	mLedger.On("RegisterIdentity", mock.Anything, types.RoleClient, "fhe-pub-new").Return(fmt.Errorf("pop"))

	_, err := m.EnsureRegistered(context.Background(), types.RoleClient)
	assert.Regexp(t, "pop", err)
}
