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
	"encoding/binary"
	"strconv"
	"testing"
	"time"

	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/hyperledger/firefly-signer/pkg/rpcbackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cipherbridge/cipherbridge/internal/confutil"
	"github.com/cipherbridge/cipherbridge/internal/retry"
	"github.com/cipherbridge/cipherbridge/internal/signer"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

type rpcBackendMock struct {
	mock.Mock
}

func (m *rpcBackendMock) CallRPC(ctx context.Context, result interface{}, method string, params ...interface{}) *rpcbackend.RPCError {
	args := make([]interface{}, 0, len(params)+3)
	args = append(args, ctx, result, method)
	args = append(args, params...)
	ret := m.Mock.Called(args...)
	if e := ret.Get(0); e != nil {
		return e.(*rpcbackend.RPCError)
	}
	return nil
}

const (
	testClientRegistryAddr = "0x1000000000000000000000000000000000000001"
	testBankRegistryAddr   = "0x1000000000000000000000000000000000000002"
	testRecordStoreAddr    = "0x1000000000000000000000000000000000000003"
	testTaskStoreAddr      = "0x1000000000000000000000000000000000000004"
)

func testConfig() *Config {
	return &Config{
		Contracts: ContractsConfig{
			ClientRegistry: confutil.P(testClientRegistryAddr),
			BankRegistry:   confutil.P(testBankRegistryAddr),
			RecordStore:    confutil.P(testRecordStoreAddr),
			TaskStore:      confutil.P(testTaskStoreAddr),
		},
		ConfirmationTimeout: confutil.P("100ms"),
		ConfirmationPoll: retry.Config{
			InitialDelay: confutil.P("1ms"),
			MaxDelay:     confutil.P("2ms"),
		},
	}
}

func mockChainID(mRPC *rpcBackendMock) {
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_chainId").Run(func(args mock.Arguments) {
		*(args[1].(*ethtypes.HexUint64)) = ethtypes.HexUint64(1337)
	}).Return(nil).Once()
}

func newTestLedgerClient(t *testing.T) (context.Context, *ledgerClient, *rpcBackendMock) {
	ctx := context.Background()
	mRPC := &rpcBackendMock{}
	mockChainID(mRPC)
	wallet, err := signer.NewWallet(ctx, &signer.Config{})
	require.NoError(t, err)
	lc, err := WrapRPCClient(ctx, testConfig(), mRPC, wallet)
	require.NoError(t, err)
	return ctx, lc.(*ledgerClient), mRPC
}

// encodeReturn ABI-encodes function return data the way the node would
func encodeReturn(t *testing.T, a abi.ABI, fn string, values map[string]interface{}) ethtypes.HexBytes0xPrefix {
	ctx := context.Background()
	e := a.Functions()[fn]
	require.NotNil(t, e)
	tc, err := e.Outputs.TypeComponentTreeCtx(ctx)
	require.NoError(t, err)
	cv, err := tc.ParseExternalCtx(ctx, values)
	require.NoError(t, err)
	data, err := cv.EncodeABIDataCtx(ctx)
	require.NoError(t, err)
	return data
}

func uintTopic(v uint64) ethtypes.HexBytes0xPrefix {
	topic := make([]byte, 32)
	binary.BigEndian.PutUint64(topic[24:], v)
	return topic
}

func addressTopic(addr string) ethtypes.HexBytes0xPrefix {
	topic := make([]byte, 32)
	copy(topic[12:], ethtypes.MustNewAddress(addr)[:])
	return topic
}

func mockCallReturn(mRPC *rpcBackendMock, data ethtypes.HexBytes0xPrefix) *mock.Call {
	return mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_call", mock.Anything, "latest").Run(func(args mock.Arguments) {
		*(args[1].(*ethtypes.HexBytes0xPrefix)) = data
	}).Return(nil)
}

const testTxHash = "0x2a5e9dcca6d27c88a176cb2defcedb8235ded45cbcaa7ba306ee0b4ebdaa046d"

// mockSubmitPath mocks the nonce/estimate/submit sequence for one transaction,
// leaving the caller to mock the receipt poll
func mockSubmitPath(mRPC *rpcBackendMock) {
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_getTransactionCount", mock.Anything, "latest").Run(func(args mock.Arguments) {
		*(args[1].(**ethtypes.HexInteger)) = ethtypes.NewHexInteger64(5)
	}).Return(nil).Once()
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_estimateGas", mock.Anything).Run(func(args mock.Arguments) {
		*(args[1].(*ethtypes.HexInteger)) = *ethtypes.NewHexInteger64(100000)
	}).Return(nil).Once()
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_sendRawTransaction", mock.Anything).Run(func(args mock.Arguments) {
		*(args[1].(*ethtypes.HexBytes0xPrefix)) = ethtypes.MustNewHexBytes0xPrefix(testTxHash)
	}).Return(nil).Once()
}

// mockWritePath mocks the full write sequence for one transaction. A nil
// receipt means eth_getTransactionReceipt keeps answering "not mined yet".
func mockWritePath(mRPC *rpcBackendMock, receipt *txReceipt) {
	mockSubmitPath(mRPC)
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_getTransactionReceipt", mock.Anything).Run(func(args mock.Arguments) {
		*(args[1].(**txReceipt)) = receipt
	}).Return(nil)
}

func okReceipt() *txReceipt {
	return &txReceipt{
		TransactionHash: ethtypes.MustNewHexBytes0xPrefix(testTxHash),
		BlockNumber:     ethtypes.HexUint64(16),
		Status:          ethtypes.NewHexInteger64(1),
	}
}

func TestNewClientMissingContractAddr(t *testing.T) {
	ctx := context.Background()
	wallet, err := signer.NewWallet(ctx, &signer.Config{})
	require.NoError(t, err)
	conf := testConfig()
	conf.Contracts.TaskStore = nil
	_, err = WrapRPCClient(ctx, conf, &rpcBackendMock{}, wallet)
	assert.Regexp(t, "CB010113.*taskStore", err)
}

func TestNewClientBadContractAddr(t *testing.T) {
	ctx := context.Background()
	wallet, err := signer.NewWallet(ctx, &signer.Config{})
	require.NoError(t, err)
	conf := testConfig()
	conf.Contracts.ClientRegistry = confutil.P("not-an-address")
	_, err = WrapRPCClient(ctx, conf, &rpcBackendMock{}, wallet)
	assert.Regexp(t, "CB010003", err)
}

func TestNewClientChainIDFail(t *testing.T) {
	ctx := context.Background()
	wallet, err := signer.NewWallet(ctx, &signer.Config{})
	require.NoError(t, err)
	mRPC := &rpcBackendMock{}
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_chainId").Return(&rpcbackend.RPCError{Message: "pop"})
	_, err = WrapRPCClient(ctx, testConfig(), mRPC, wallet)
	assert.Regexp(t, "CB010114", err)
}

func TestChainIDAndSubmitter(t *testing.T) {
	_, lc, _ := newTestLedgerClient(t)
	assert.Equal(t, int64(1337), lc.ChainID())
	assert.NotEmpty(t, lc.Submitter().String())
}

func TestLedgerTime(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_getBlockByNumber", "latest", false).Run(func(args mock.Arguments) {
		result := args[1].(*struct {
			Timestamp ethtypes.HexUint64 `json:"timestamp"`
		})
		result.Timestamp = ethtypes.HexUint64(1700000000)
	}).Return(nil)

	now, err := lc.LedgerTime(ctx)
	assert.NoError(t, err)
	assert.Equal(t, types.LedgerTime(1700000000), now)
}

func TestGetRegistrationActive(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockCallReturn(mRPC, encodeReturn(t, registryABI, "getRegistration", map[string]interface{}{
		"fhePublicKey": "fhe-pub-1",
		"isActive":     true,
	}))

	addr := ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641")
	reg, err := lc.GetRegistration(ctx, types.RoleClient, *addr)
	assert.NoError(t, err)
	assert.Equal(t, "fhe-pub-1", reg.FHEPublicKey)
	assert.True(t, reg.Active)
	assert.Equal(t, *addr, reg.Address)
}

func TestGetRegistrationNotFound(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockCallReturn(mRPC, encodeReturn(t, registryABI, "getRegistration", map[string]interface{}{
		"fhePublicKey": "",
		"isActive":     false,
	}))

	addr := ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641")
	_, err := lc.GetRegistration(ctx, types.RoleBank, *addr)
	assert.Regexp(t, "CB010109", err)
	assert.True(t, IsIdentityNotFound(err))
}

func TestGetRegistrationBadRole(t *testing.T) {
	ctx, lc, _ := newTestLedgerClient(t)
	addr := ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641")
	_, err := lc.GetRegistration(ctx, "auditor", *addr)
	assert.Regexp(t, "CB010700", err)
}

func TestCallRevertMapsToRejected(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_call", mock.Anything, "latest").
		Return(&rpcbackend.RPCError{Message: "execution reverted: no such registration"})

	addr := ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641")
	_, err := lc.GetRegistration(ctx, types.RoleClient, *addr)
	assert.Regexp(t, "CB010105", err)
	assert.True(t, IsRejected(err))
}

func TestRegisterIdentityAlreadyActive(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockCallReturn(mRPC, encodeReturn(t, registryABI, "getRegistration", map[string]interface{}{
		"fhePublicKey": "fhe-pub-1",
		"isActive":     true,
	}))

	err := lc.RegisterIdentity(ctx, types.RoleClient, "fhe-pub-1")
	assert.Regexp(t, "CB010116", err)
}

func TestRegisterIdentityOK(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockCallReturn(mRPC, encodeReturn(t, registryABI, "getRegistration", map[string]interface{}{
		"fhePublicKey": "",
		"isActive":     false,
	}))
	mockWritePath(mRPC, okReceipt())

	err := lc.RegisterIdentity(ctx, types.RoleBank, "fhe-pub-1")
	assert.NoError(t, err)
}

func TestStoreRecordEstimateFailIsRejected(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_getTransactionCount", mock.Anything, "latest").Return(nil)
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_estimateGas", mock.Anything).
		Return(&rpcbackend.RPCError{Message: "execution reverted: unauthorized"})

	_, err := lc.StoreRecord(ctx, &types.EncryptedRecord{
		Owner:      *ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641"),
		DataType:   types.DataTypeMonthlyIncome,
		Ciphertext: ethtypes.HexBytes0xPrefix("ct-1"),
		Expiry:     types.LedgerTime(1700000000),
	})
	assert.Regexp(t, "CB010105", err)
	assert.True(t, IsRejected(err))
	assert.False(t, IsUnconfirmed(err))
}

func TestStoreRecordUnconfirmed(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	// The receipt never arrives - confirmation must time out as Unconfirmed
	mockWritePath(mRPC, nil)

	_, err := lc.StoreRecord(ctx, &types.EncryptedRecord{
		Owner:      *ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641"),
		DataType:   types.DataTypeMonthlyIncome,
		Ciphertext: ethtypes.HexBytes0xPrefix("ct-1"),
		Expiry:     types.LedgerTime(1700000000),
	})
	assert.Regexp(t, "CB010106", err)
	assert.True(t, IsUnconfirmed(err))
	assert.False(t, IsRejected(err))
}

func TestStoreRecordReceiptPollFailingIsUnconfirmed(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockSubmitPath(mRPC)
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_getTransactionReceipt", mock.Anything).
		Return(&rpcbackend.RPCError{Message: "pop"})

	_, err := lc.StoreRecord(ctx, &types.EncryptedRecord{
		Owner:      *ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641"),
		DataType:   types.DataTypeMonthlyIncome,
		Ciphertext: ethtypes.HexBytes0xPrefix("ct-1"),
		Expiry:     types.LedgerTime(1700000000),
	})
	assert.Regexp(t, "CB010106", err)
	assert.True(t, IsUnconfirmed(err))
	assert.False(t, IsRejected(err))
}

func TestStoreRecordReverted(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	receipt := okReceipt()
	receipt.Status = ethtypes.NewHexInteger64(0)
	mockWritePath(mRPC, receipt)

	_, err := lc.StoreRecord(ctx, &types.EncryptedRecord{
		Owner:      *ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641"),
		DataType:   types.DataTypeMonthlyIncome,
		Ciphertext: ethtypes.HexBytes0xPrefix("ct-1"),
		Expiry:     types.LedgerTime(1700000000),
	})
	assert.Regexp(t, "CB010115", err)
	assert.True(t, IsRejected(err))
	assert.False(t, IsUnconfirmed(err))
}

func TestStoreRecordOK(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockWritePath(mRPC, okReceipt())

	txHash, err := lc.StoreRecord(ctx, &types.EncryptedRecord{
		Owner:      *ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641"),
		DataType:   types.DataTypeMonthlyIncome,
		Ciphertext: ethtypes.HexBytes0xPrefix("ct-1"),
		Expiry:     types.LedgerTime(1700000000),
	})
	assert.NoError(t, err)
	assert.Equal(t, "0x2a5e9dcca6d27c88a176cb2defcedb8235ded45cbcaa7ba306ee0b4ebdaa046d", txHash.String())
}

func TestQueryRecords(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	owner := "0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641"
	producer := "0x615dd09124271d8008225cb95a85f8d36ac442c6"
	mockCallReturn(mRPC, encodeReturn(t, recordStoreABI, "queryByOwnerAndType", map[string]interface{}{
		"records": []interface{}{
			map[string]interface{}{
				"owner":      owner,
				"producer":   producer,
				"dataType":   "monthly_income",
				"ciphertext": ethtypes.HexBytes0xPrefix("ct-1").String(),
				"expiry":     "1700000000",
			},
			map[string]interface{}{
				"owner":      owner,
				"producer":   producer,
				"dataType":   "monthly_income",
				"ciphertext": ethtypes.HexBytes0xPrefix("ct-2").String(),
				"expiry":     "1800000000",
			},
		},
	}))

	records, err := lc.QueryRecords(ctx, *ethtypes.MustNewAddress(owner), types.DataTypeMonthlyIncome)
	assert.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, owner, records[0].Owner.String())
	assert.Equal(t, producer, records[0].Producer.String())
	assert.Equal(t, types.LedgerTime(1700000000), records[0].Expiry)
	assert.Equal(t, "ct-2", (string)(records[1].Ciphertext))
	assert.True(t, records[0].Expired(types.LedgerTime(1700000001)))
	assert.False(t, records[1].Expired(types.LedgerTime(1700000001)))
}

func TestCreateTaskDecodesEvent(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	client := "0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641"
	bank := "0x615dd09124271d8008225cb95a85f8d36ac442c6"
	receipt := okReceipt()
	receipt.Logs = []*txLog{{
		Address: ethtypes.MustNewAddress(testTaskStoreAddr),
		Topics: []ethtypes.HexBytes0xPrefix{
			taskStoreABI.Events()["TaskCreated"].SignatureHashBytes(),
			uintTopic(7),
			addressTopic(client),
			addressTopic(bank),
		},
	}}
	mockWritePath(mRPC, receipt)

	id, err := lc.CreateTask(ctx, *ethtypes.MustNewAddress(bank), types.DataTypeMonthlyIncome, types.BusinessTypeLoan)
	assert.NoError(t, err)
	assert.Equal(t, types.TaskID(7), id)
}

func TestCreateTaskMissingEvent(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockWritePath(mRPC, okReceipt())

	_, err := lc.CreateTask(ctx, *ethtypes.MustNewAddress("0x615dd09124271d8008225cb95a85f8d36ac442c6"),
		types.DataTypeMonthlyIncome, types.BusinessTypeLoan)
	assert.Regexp(t, "CB010107", err)
}

func TestCreateTaskBadDataType(t *testing.T) {
	ctx, lc, _ := newTestLedgerClient(t)
	_, err := lc.CreateTask(ctx, *ethtypes.MustNewAddress("0x615dd09124271d8008225cb95a85f8d36ac442c6"),
		"shoe_size", types.BusinessTypeLoan)
	assert.Regexp(t, "CB010000", err)
}

func taskTuple(id uint64, completed, published bool) map[string]interface{} {
	return map[string]interface{}{
		"task": map[string]interface{}{
			"id":              strconv.FormatUint(id, 10),
			"client":          "0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641",
			"bank":            "0x615dd09124271d8008225cb95a85f8d36ac442c6",
			"dataType":        "monthly_income",
			"businessType":    "loan",
			"isCompleted":     completed,
			"isPublished":     published,
			"encryptedResult": ethtypes.HexBytes0xPrefix("ct-result").String(),
			"signature":       ethtypes.HexBytes0xPrefix("").String(),
			"createdAt":       "1700000000",
		},
	}
}

func TestGetTask(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockCallReturn(mRPC, encodeReturn(t, taskStoreABI, "getTask", taskTuple(7, true, false)))

	task, err := lc.GetTask(ctx, 7)
	assert.NoError(t, err)
	assert.Equal(t, types.TaskID(7), task.ID)
	assert.Equal(t, types.DataTypeMonthlyIncome, task.DataType)
	assert.Equal(t, types.BusinessTypeLoan, task.BusinessType)
	assert.Equal(t, types.StatusCompleted, task.Status())
	assert.Equal(t, "ct-result", (string)(task.EncryptedResult))
	assert.Equal(t, types.LedgerTime(1700000000), task.CreatedAt)
}

func TestGetTaskNotFound(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockCallReturn(mRPC, encodeReturn(t, taskStoreABI, "getTask", map[string]interface{}{
		"task": map[string]interface{}{
			"id":              "0",
			"client":          zeroAddress,
			"bank":            zeroAddress,
			"dataType":        "",
			"businessType":    "",
			"isCompleted":     false,
			"isPublished":     false,
			"encryptedResult": "0x",
			"signature":       "0x",
			"createdAt":       "0",
		},
	}))

	_, err := lc.GetTask(ctx, 99)
	assert.Regexp(t, "CB010110", err)
	assert.True(t, IsTaskNotFound(err))
}

func TestCompleteAndPublishTask(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	mockWritePath(mRPC, okReceipt())
	assert.NoError(t, lc.CompleteTask(ctx, 7, ethtypes.HexBytes0xPrefix("ct-result")))

	mockWritePath(mRPC, okReceipt())
	assert.NoError(t, lc.PublishTask(ctx, 7, ethtypes.HexBytes0xPrefix("sig")))
}

func TestListTasks(t *testing.T) {
	ctx, lc, mRPC := newTestLedgerClient(t)
	listData := encodeReturn(t, taskStoreABI, "listTasks", map[string]interface{}{
		"taskIds": []interface{}{"7"},
	})
	taskData := encodeReturn(t, taskStoreABI, "getTask", taskTuple(7, false, false))
	first := true
	mRPC.On("CallRPC", mock.Anything, mock.Anything, "eth_call", mock.Anything, "latest").Run(func(args mock.Arguments) {
		if first {
			*(args[1].(*ethtypes.HexBytes0xPrefix)) = listData
			first = false
		} else {
			*(args[1].(*ethtypes.HexBytes0xPrefix)) = taskData
		}
	}).Return(nil)

	party := ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641")
	tasks, err := lc.ListTasks(ctx, *party, types.RoleClient, types.StatusPending)
	assert.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, types.TaskID(7), tasks[0].ID)
	assert.Equal(t, types.StatusPending, tasks[0].Status())
}

func TestListTasksInvalidScope(t *testing.T) {
	ctx, lc, _ := newTestLedgerClient(t)
	party := ethtypes.MustNewAddress("0xf0be7da8b0700a35bb056b64dc8afcf2b3a73641")
	_, err := lc.ListTasks(ctx, *party, types.RoleClient, types.StatusExpired)
	assert.Regexp(t, "CB010111", err)
}

func TestConfirmationTimeoutDefaulting(t *testing.T) {
	ctx := context.Background()
	wallet, err := signer.NewWallet(ctx, &signer.Config{})
	require.NoError(t, err)
	mRPC := &rpcBackendMock{}
	mockChainID(mRPC)
	conf := testConfig()
	conf.ConfirmationTimeout = nil
	conf.GasEstimateFactor = confutil.P(0.5) // below floor, must clamp to default
	lc, err := WrapRPCClient(ctx, conf, mRPC, wallet)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, lc.(*ledgerClient).confirmationTimeout)
	assert.Equal(t, *Defaults.GasEstimateFactor, lc.(*ledgerClient).gasEstimateFactor)
}
