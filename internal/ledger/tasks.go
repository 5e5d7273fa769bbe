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
	"strconv"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"

	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

type taskWire struct {
	ID              string                    `json:"id"`
	Client          *ethtypes.Address0xHex    `json:"client"`
	Bank            *ethtypes.Address0xHex    `json:"bank"`
	DataType        string                    `json:"dataType"`
	BusinessType    string                    `json:"businessType"`
	IsCompleted     bool                      `json:"isCompleted"`
	IsPublished     bool                      `json:"isPublished"`
	EncryptedResult ethtypes.HexBytes0xPrefix `json:"encryptedResult"`
	Signature       ethtypes.HexBytes0xPrefix `json:"signature"`
	CreatedAt       string                    `json:"createdAt"`
}

func (tw *taskWire) toTask(ctx context.Context) (*types.Task, error) {
	id, err := strconv.ParseUint(tw.ID, 10, 64)
	var createdAt uint64
	if err == nil {
		createdAt, err = strconv.ParseUint(tw.CreatedAt, 10, 64)
	}
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgLedgerABIDecodeFailed, "getTask")
	}
	return &types.Task{
		ID:              types.TaskID(id),
		Client:          *tw.Client,
		Bank:            *tw.Bank,
		DataType:        types.DataType(tw.DataType),
		BusinessType:    types.BusinessType(tw.BusinessType),
		Completed:       tw.IsCompleted,
		Published:       tw.IsPublished,
		EncryptedResult: tw.EncryptedResult,
		Signature:       tw.Signature,
		CreatedAt:       types.LedgerTime(createdAt),
	}, nil
}

// CreateTask submits a new pending task assigned to the given bank, returning
// the ledger-assigned task ID from the TaskCreated event on the receipt.
func (lc *ledgerClient) CreateTask(ctx context.Context, bank ethtypes.Address0xHex, dataType types.DataType, businessType types.BusinessType) (types.TaskID, error) {
	dataType, err := dataType.Validate(ctx)
	if err != nil {
		return 0, err
	}
	businessType, err = businessType.Validate(ctx)
	if err != nil {
		return 0, err
	}
	input := map[string]any{
		"bank":         bank.String(),
		"dataType":     (string)(dataType),
		"businessType": (string)(businessType),
	}
	receipt, err := lc.sendAndConfirm(ctx, lc.taskStore, "create", input)
	if err != nil {
		return 0, err
	}
	var ev struct {
		TaskID string `json:"taskId"`
	}
	if err := lc.decodeEvent(ctx, lc.taskStore, receipt, "TaskCreated", &ev); err != nil {
		return 0, err
	}
	id, err := types.ParseTaskID(ctx, ev.TaskID)
	if err != nil {
		return 0, err
	}
	log.L(ctx).Infof("Created task %s for bank %s (%s/%s, tx=%s)",
		id, bank, dataType, businessType, receipt.TransactionHash)
	return id, nil
}

// GetTask reads the full current state of a task. Every lifecycle decision is
// made against the result of this read, never against remembered state.
func (lc *ledgerClient) GetTask(ctx context.Context, id types.TaskID) (*types.Task, error) {
	var out struct {
		Task *taskWire `json:"task"`
	}
	input := map[string]any{"taskId": id.String()}
	if err := lc.call(ctx, lc.taskStore, "getTask", input, &out); err != nil {
		if IsRejected(err) {
			return nil, i18n.NewError(ctx, msgs.MsgLedgerTaskNotFound, id)
		}
		return nil, err
	}
	// The store returns a zero tuple rather than reverting for unknown IDs
	if out.Task == nil || out.Task.Client == nil || out.Task.Client.String() == zeroAddress {
		return nil, i18n.NewError(ctx, msgs.MsgLedgerTaskNotFound, id)
	}
	return out.Task.toTask(ctx)
}

// CompleteTask records the bank's encrypted result, moving the task from
// pending to completed. The contract enforces that only the assigned bank can
// complete, and only once.
func (lc *ledgerClient) CompleteTask(ctx context.Context, id types.TaskID, encryptedResult ethtypes.HexBytes0xPrefix) error {
	input := map[string]any{
		"taskId":          id.String(),
		"encryptedResult": encryptedResult.String(),
	}
	receipt, err := lc.sendAndConfirm(ctx, lc.taskStore, "complete", input)
	if err != nil {
		return err
	}
	log.L(ctx).Infof("Completed task %s (tx=%s)", id, receipt.TransactionHash)
	return nil
}

// PublishTask records the client's signature over the decrypted plaintext,
// moving the task from completed to published. The contract enforces that a
// task can only be published after completion, and only by its client.
func (lc *ledgerClient) PublishTask(ctx context.Context, id types.TaskID, signature ethtypes.HexBytes0xPrefix) error {
	input := map[string]any{
		"taskId":    id.String(),
		"signature": signature.String(),
	}
	receipt, err := lc.sendAndConfirm(ctx, lc.taskStore, "publish", input)
	if err != nil {
		return err
	}
	log.L(ctx).Infof("Published task %s (tx=%s)", id, receipt.TransactionHash)
	return nil
}

// ListTasks returns the tasks visible to a party in one of the six on-chain
// list scopes: the party's side of the protocol crossed with the three stored
// statuses. StatusExpired is a client-side derivation over pending tasks and
// not a valid scope here.
func (lc *ledgerClient) ListTasks(ctx context.Context, party ethtypes.Address0xHex, role types.Role, status types.TaskStatus) ([]*types.Task, error) {
	role, err := role.Validate(ctx)
	if err != nil {
		return nil, err
	}
	var statusCode uint8
	switch status {
	case types.StatusPending:
		statusCode = 0
	case types.StatusCompleted:
		statusCode = 1
	case types.StatusPublished:
		statusCode = 2
	default:
		return nil, i18n.NewError(ctx, msgs.MsgLedgerInvalidListScope, role, status)
	}
	var out struct {
		TaskIDs []string `json:"taskIds"`
	}
	input := map[string]any{
		"party":    party.String(),
		"bankView": role == types.RoleBank,
		"status":   strconv.FormatUint((uint64)(statusCode), 10),
	}
	if err := lc.call(ctx, lc.taskStore, "listTasks", input, &out); err != nil {
		return nil, err
	}
	tasks := make([]*types.Task, 0, len(out.TaskIDs))
	for _, idStr := range out.TaskIDs {
		id, err := types.ParseTaskID(ctx, idStr)
		if err != nil {
			return nil, err
		}
		task, err := lc.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// IsTaskNotFound identifies reads of task IDs the ledger has never assigned
func IsTaskNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CB010110")
}

const zeroAddress = "0x0000000000000000000000000000000000000000"
