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

// Package ledger is the typed client for the four on-chain registries: client
// registry, bank registry, encrypted-record store and task store. The ledger is
// the single source of truth for protocol state - every read here goes to the
// node, never to a local cache, and every write is a single atomic transaction
// whose outcome is obtained from its emitted events.
package ledger

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethsigner"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/hyperledger/firefly-signer/pkg/rpcbackend"

	"github.com/cipherbridge/cipherbridge/internal/confutil"
	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/internal/retry"
	"github.com/cipherbridge/cipherbridge/internal/signer"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

// Client is the full ledger surface consumed by the pipeline and coordinator.
// Registry reads, record store access and task store access are grouped on one
// interface because they share a connection, a signing wallet, and the
// Rejected/Unconfirmed error discipline.
type Client interface {
	ChainID() int64
	// Submitter is the wallet address all writes from this client are signed with
	Submitter() ethtypes.Address0xHex
	LedgerTime(ctx context.Context) (types.LedgerTime, error)

	GetRegistration(ctx context.Context, role types.Role, addr ethtypes.Address0xHex) (*types.Registration, error)
	RegisterIdentity(ctx context.Context, role types.Role, fhePublicKey string) error

	StoreRecord(ctx context.Context, record *types.EncryptedRecord) (txHash ethtypes.HexBytes0xPrefix, err error)
	QueryRecords(ctx context.Context, owner ethtypes.Address0xHex, dataType types.DataType) ([]*types.EncryptedRecord, error)

	CreateTask(ctx context.Context, bank ethtypes.Address0xHex, dataType types.DataType, businessType types.BusinessType) (types.TaskID, error)
	GetTask(ctx context.Context, id types.TaskID) (*types.Task, error)
	CompleteTask(ctx context.Context, id types.TaskID, encryptedResult ethtypes.HexBytes0xPrefix) error
	PublishTask(ctx context.Context, id types.TaskID, signature ethtypes.HexBytes0xPrefix) error
	ListTasks(ctx context.Context, party ethtypes.Address0xHex, role types.Role, status types.TaskStatus) ([]*types.Task, error)
}

type ledgerClient struct {
	chainID             int64
	rpc                 rpcbackend.RPC
	wallet              signer.Wallet
	gasEstimateFactor   float64
	confirmationTimeout time.Duration
	confirmationPoll    *retry.Retry

	clientRegistry *boundContract
	bankRegistry   *boundContract
	recordStore    *boundContract
	taskStore      *boundContract
}

func NewClient(ctx context.Context, conf *Config, wallet signer.Wallet) (Client, error) {
	rpc := rpcbackend.NewRPCClient(resty.New().SetBaseURL(conf.HTTP.URL))
	return WrapRPCClient(ctx, conf, rpc, wallet)
}

// WrapRPCClient is split out for tests that provide their own RPC backend
func WrapRPCClient(ctx context.Context, conf *Config, rpc rpcbackend.RPC, wallet signer.Wallet) (Client, error) {
	lc := &ledgerClient{
		rpc:                 rpc,
		wallet:              wallet,
		gasEstimateFactor:   confutil.Float64Min(conf.GasEstimateFactor, 1.0, *Defaults.GasEstimateFactor),
		confirmationTimeout: confutil.DurationMin(conf.ConfirmationTimeout, 0, confutil.Duration(Defaults.ConfirmationTimeout, 30*time.Second)),
		confirmationPoll:    retry.NewRetryIndefinite(&conf.ConfirmationPoll),
	}
	var err error
	if lc.clientRegistry, err = bindContract(ctx, "clientRegistry", conf.Contracts.ClientRegistry, registryABI); err != nil {
		return nil, err
	}
	if lc.bankRegistry, err = bindContract(ctx, "bankRegistry", conf.Contracts.BankRegistry, registryABI); err != nil {
		return nil, err
	}
	if lc.recordStore, err = bindContract(ctx, "recordStore", conf.Contracts.RecordStore, recordStoreABI); err != nil {
		return nil, err
	}
	if lc.taskStore, err = bindContract(ctx, "taskStore", conf.Contracts.TaskStore, taskStoreABI); err != nil {
		return nil, err
	}
	if err := lc.setupChainID(ctx); err != nil {
		return nil, err
	}
	return lc, nil
}

func (lc *ledgerClient) setupChainID(ctx context.Context) error {
	var chainID ethtypes.HexUint64
	if rpcErr := lc.rpc.CallRPC(ctx, &chainID, "eth_chainId"); rpcErr != nil {
		return i18n.WrapError(ctx, rpcErr.Error(), msgs.MsgLedgerChainIDFailed)
	}
	lc.chainID = (int64)(chainID.Uint64())
	return nil
}

func (lc *ledgerClient) ChainID() int64 {
	return lc.chainID
}

func (lc *ledgerClient) Submitter() ethtypes.Address0xHex {
	return lc.wallet.Address()
}

// LedgerTime reads the latest block timestamp. This is the only clock used for
// record expiry, so producers on skewed wall clocks cannot shift an expiry.
func (lc *ledgerClient) LedgerTime(ctx context.Context) (types.LedgerTime, error) {
	var block struct {
		Timestamp ethtypes.HexUint64 `json:"timestamp"`
	}
	if rpcErr := lc.rpc.CallRPC(ctx, &block, "eth_getBlockByNumber", "latest", false); rpcErr != nil {
		return 0, i18n.WrapError(ctx, rpcErr.Error(), msgs.MsgLedgerRPCFailed, "eth_getBlockByNumber")
	}
	return types.LedgerTime(block.Timestamp.Uint64()), nil
}

// call executes a read-only eth_call against a bound contract function, decoding
// the return data into output via the standard ABI serializer
func (lc *ledgerClient) call(ctx context.Context, c *boundContract, fn string, input any, output any) error {
	f := c.functions[fn]
	if f == nil {
		return i18n.NewError(ctx, msgs.MsgLedgerFunctionNotFound, fn)
	}
	data, err := f.encodeCallData(ctx, input)
	if err != nil {
		return err
	}
	from := lc.wallet.Address()
	tx := &ethsigner.Transaction{
		From: json.RawMessage(`"` + from.String() + `"`),
		To:   &c.address,
		Data: data,
	}
	var resData ethtypes.HexBytes0xPrefix
	if rpcErr := lc.rpc.CallRPC(ctx, &resData, "eth_call", tx, "latest"); rpcErr != nil {
		return mapCallError(ctx, fn, rpcErr)
	}
	cv, err := f.outputs.DecodeABIDataCtx(ctx, resData, 0)
	if err != nil {
		return i18n.WrapError(ctx, err, msgs.MsgLedgerABIDecodeFailed, fn)
	}
	jsonData, err := standardABISerializer().SerializeJSONCtx(ctx, cv)
	if err == nil {
		err = json.Unmarshal(jsonData, output)
	}
	if err != nil {
		return i18n.WrapError(ctx, err, msgs.MsgLedgerABIDecodeFailed, fn)
	}
	return nil
}

// sendAndConfirm signs and submits a state-changing transaction, then waits for
// its receipt up to the confirmation timeout. The receipt is the sole authority
// for success - submission without a receipt is Unconfirmed, never success.
func (lc *ledgerClient) sendAndConfirm(ctx context.Context, c *boundContract, fn string, input any) (*txReceipt, error) {
	f := c.functions[fn]
	if f == nil {
		return nil, i18n.NewError(ctx, msgs.MsgLedgerFunctionNotFound, fn)
	}
	data, err := f.encodeCallData(ctx, input)
	if err != nil {
		return nil, err
	}

	from := lc.wallet.Address()
	tx := &ethsigner.Transaction{
		From: json.RawMessage(`"` + from.String() + `"`),
		To:   &c.address,
		Data: data,
	}

	if rpcErr := lc.rpc.CallRPC(ctx, &tx.Nonce, "eth_getTransactionCount", from, "latest"); rpcErr != nil {
		return nil, i18n.WrapError(ctx, rpcErr.Error(), msgs.MsgLedgerRPCFailed, "eth_getTransactionCount")
	}

	// Estimate gas before submission. A failed estimation is almost always a
	// revert of the business rules, so it surfaces as Rejected.
	var gasEstimate ethtypes.HexInteger
	if rpcErr := lc.rpc.CallRPC(ctx, &gasEstimate, "eth_estimateGas", tx); rpcErr != nil {
		log.L(ctx).Errorf("eth_estimateGas for %s failed: %+v", fn, rpcErr)
		return nil, i18n.NewError(ctx, msgs.MsgLedgerRejected, fn, rpcErr.Error())
	}
	gasLimitFactored := new(big.Float).SetInt(gasEstimate.BigInt())
	gasLimitFactored = gasLimitFactored.Mul(gasLimitFactored, big.NewFloat(lc.gasEstimateFactor))
	gasLimit, _ := gasLimitFactored.Int(nil)
	tx.GasLimit = ethtypes.NewHexInteger(gasLimit)

	sigPayload := tx.SignaturePayloadEIP1559(lc.chainID)
	sig, err := lc.wallet.SignDigest(ctx, signer.Keccak256(sigPayload.Bytes()))
	var rawTX []byte
	if err == nil {
		rawTX, err = tx.FinalizeEIP1559WithSignature(sigPayload, sig)
	}
	if err != nil {
		return nil, err
	}

	var txHash ethtypes.HexBytes0xPrefix
	if rpcErr := lc.rpc.CallRPC(ctx, &txHash, "eth_sendRawTransaction", ethtypes.HexBytes0xPrefix(rawTX)); rpcErr != nil {
		return nil, i18n.NewError(ctx, msgs.MsgLedgerRejected, fn, rpcErr.Error())
	}

	return lc.waitForReceipt(ctx, fn, txHash)
}

func (lc *ledgerClient) waitForReceipt(ctx context.Context, fn string, txHash ethtypes.HexBytes0xPrefix) (*txReceipt, error) {
	deadline := time.Now().Add(lc.confirmationTimeout)
	var receipt *txReceipt
	err := lc.confirmationPoll.Do(ctx, func(attempt int) (retryable bool, err error) {
		if rpcErr := lc.rpc.CallRPC(ctx, &receipt, "eth_getTransactionReceipt", txHash); rpcErr != nil {
			// The transaction is already submitted, so once the deadline passes a
			// failing poll is still Unconfirmed - the write may have applied
			if time.Now().After(deadline) {
				return false, i18n.WrapError(ctx, rpcErr.Error(), msgs.MsgLedgerUnconfirmed, txHash, lc.confirmationTimeout)
			}
			return true, rpcErr.Error()
		}
		if receipt == nil {
			if time.Now().After(deadline) {
				return false, i18n.NewError(ctx, msgs.MsgLedgerUnconfirmed, txHash, lc.confirmationTimeout)
			}
			return true, i18n.NewError(ctx, msgs.MsgLedgerUnconfirmed, txHash, lc.confirmationTimeout)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if receipt.Status == nil || receipt.Status.BigInt().Sign() == 0 {
		return nil, i18n.NewError(ctx, msgs.MsgLedgerReceiptReverted, txHash)
	}
	log.L(ctx).Debugf("%s confirmed in block %d (tx=%s)", fn, receipt.BlockNumber, txHash)
	return receipt, nil
}

type txReceipt struct {
	TransactionHash ethtypes.HexBytes0xPrefix `json:"transactionHash"`
	BlockNumber     ethtypes.HexUint64        `json:"blockNumber"`
	GasUsed         *ethtypes.HexInteger      `json:"gasUsed"`
	Status          *ethtypes.HexInteger      `json:"status"`
	Logs            []*txLog                  `json:"logs"`
}

type txLog struct {
	Address *ethtypes.Address0xHex      `json:"address"`
	Data    ethtypes.HexBytes0xPrefix   `json:"data"`
	Topics  []ethtypes.HexBytes0xPrefix `json:"topics"`
}

// decodeEvent finds the first log matching the named event and decodes it into
// output, using the same serializer as function return data
func (lc *ledgerClient) decodeEvent(ctx context.Context, c *boundContract, receipt *txReceipt, event string, output any) error {
	ev := c.events[event]
	if ev == nil {
		return i18n.NewError(ctx, msgs.MsgLedgerEventNotFound, event)
	}
	for _, l := range receipt.Logs {
		cv, err := ev.entry.DecodeEventDataCtx(ctx, l.Topics, l.Data)
		if err != nil {
			continue
		}
		jsonData, err := standardABISerializer().SerializeJSONCtx(ctx, cv)
		if err == nil {
			err = json.Unmarshal(jsonData, output)
		}
		if err != nil {
			return i18n.WrapError(ctx, err, msgs.MsgLedgerABIDecodeFailed, event)
		}
		return nil
	}
	return i18n.NewError(ctx, msgs.MsgLedgerMissingEvent, receipt.TransactionHash, event)
}

func mapCallError(ctx context.Context, fn string, rpcErr *rpcbackend.RPCError) error {
	// Reverts come back as errors on eth_call - they are business rejections
	if strings.Contains(strings.ToLower(rpcErr.Message), "revert") {
		return i18n.NewError(ctx, msgs.MsgLedgerRejected, fn, rpcErr.Error())
	}
	return i18n.WrapError(ctx, rpcErr.Error(), msgs.MsgLedgerRPCFailed, fn)
}

// IsRejected identifies business-rule rejections, which must never be retried.
// A revert surfaced at submission time and a reverted receipt carry the same
// meaning for callers.
func IsRejected(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "CB010105") || strings.Contains(msg, "CB010115")
}

// IsUnconfirmed identifies confirmation timeouts, after which the caller must
// re-read ledger state before resubmitting the same write
func IsUnconfirmed(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CB010106")
}

func standardABISerializer() *abi.Serializer {
	return abi.NewSerializer().
		SetFormattingMode(abi.FormatAsObjects).
		SetIntSerializer(abi.Base10StringIntSerializer).
		SetByteSerializer(abi.HexByteSerializer0xPrefix)
}
