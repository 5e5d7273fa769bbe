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

package coordinator

import (
	"bytes"
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"

	"github.com/cipherbridge/cipherbridge/internal/fheclient"
	"github.com/cipherbridge/cipherbridge/internal/ledger"
	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

// BankSession drives the pending-to-completed transition for tasks assigned to
// one bank identity.
type BankSession struct {
	*session
}

func NewBankSession(lc ledger.Client, fhe fheclient.FHEClient, conf *Config, progress ProgressFn) *BankSession {
	return &BankSession{session: newSession(lc, fhe, types.RoleBank, conf, progress)}
}

// ProcessTask runs fetch, compute and complete for one pending task. Each
// sub-step is individually observable, and a failure at any point leaves the
// task at its last committed ledger state. The CompleteTask write is the sole
// authority for the transition - a computed-but-uncommitted result is never
// reported as done.
func (bs *BankSession) ProcessTask(ctx context.Context, id types.TaskID) error {
	task, err := bs.ledger.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Bank != bs.identity {
		return i18n.NewError(ctx, msgs.MsgCoordWrongBank, id, task.Bank, bs.identity)
	}
	if task.Completed || task.Published {
		return i18n.NewError(ctx, msgs.MsgCoordTaskNotPending, id, task.Completed, task.Published)
	}
	if err := bs.requireActiveCounterparty(ctx, types.RoleClient, task.Client); err != nil {
		return err
	}

	ciphertexts, err := bs.fetchRecords(ctx, task)
	if err != nil {
		return err
	}
	bs.notify(id, StepFetched)

	// task.id is the idempotency token - a retried compute for the same task is
	// recognized as equivalent by the stateless service
	result, err := bs.fhe.Compute(ctx, bs.identity.String(), id, task.DataType, ciphertexts)
	if err != nil {
		return err
	}
	if result == "" {
		return i18n.NewError(ctx, msgs.MsgCoordEmptyComputeResult, id)
	}
	bs.notify(id, StepComputed)

	if err := bs.commitResult(ctx, id, ethtypes.HexBytes0xPrefix(result)); err != nil {
		return err
	}
	bs.notify(id, StepCompleted)
	bs.invalidate()
	return nil
}

// fetchRecords reads the client's records for the task's data type and filters
// out everything past expiry against the current ledger time
func (bs *BankSession) fetchRecords(ctx context.Context, task *types.Task) ([]string, error) {
	records, err := bs.ledger.QueryRecords(ctx, task.Client, task.DataType)
	if err != nil {
		return nil, err
	}
	now, err := bs.ledger.LedgerTime(ctx)
	if err != nil {
		return nil, err
	}
	ciphertexts := make([]string, 0, len(records))
	for _, r := range records {
		if r.Expired(now) {
			log.L(ctx).Debugf("Skipping expired %s record for %s (expiry=%s now=%s)", r.DataType, r.Owner, r.Expiry, now)
			continue
		}
		ciphertexts = append(ciphertexts, (string)(r.Ciphertext))
	}
	if len(ciphertexts) == 0 {
		return nil, i18n.NewError(ctx, msgs.MsgCoordNoRecordFound, task.DataType, task.Client)
	}
	return ciphertexts, nil
}

// commitResult re-reads the task immediately before writing. If another
// session completed it first with the identical result, this session observes
// no-op success; a different result is a surfaced conflict, never retried.
func (bs *BankSession) commitResult(ctx context.Context, id types.TaskID, result ethtypes.HexBytes0xPrefix) error {
	task, err := bs.ledger.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Completed {
		if bytes.Equal(task.EncryptedResult, result) {
			log.L(ctx).Infof("Task %s already completed with identical result - treating as success", id)
			return nil
		}
		return i18n.NewError(ctx, msgs.MsgCoordConflictingResult, id)
	}
	return bs.ledger.CompleteTask(ctx, id, result)
}
