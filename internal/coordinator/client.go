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
	"strconv"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cipherbridge/cipherbridge/internal/fheclient"
	"github.com/cipherbridge/cipherbridge/internal/ledger"
	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/internal/persistence"
	"github.com/cipherbridge/cipherbridge/internal/signer"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

// ClientSession drives the completed-to-published transition for tasks created
// by one client identity, and holds the only place the decrypted plaintext
// ever lands: a local result store, never the ledger.
type ClientSession struct {
	*session
	wallet signer.Wallet
	p      persistence.Persistence
}

func NewClientSession(lc ledger.Client, fhe fheclient.FHEClient, wallet signer.Wallet, p persistence.Persistence, conf *Config, progress ProgressFn) *ClientSession {
	return &ClientSession{
		session: newSession(lc, fhe, types.RoleClient, conf, progress),
		wallet:  wallet,
		p:       p,
	}
}

// DecryptedResult is the locally stored plaintext outcome of a published task.
// Reconstructible by re-decrypting the on-chain encrypted result.
type DecryptedResult struct {
	TaskID    int64          `gorm:"column:task_id;primaryKey" json:"taskId"`
	Client    string         `gorm:"column:client" json:"client"`
	DataType  types.DataType `gorm:"column:data_type" json:"dataType"`
	Value     int64          `gorm:"column:value" json:"value"`
	Signature string         `gorm:"column:signature" json:"signature"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"createdAt"`
}

func (DecryptedResult) TableName() string {
	return "decrypted_results"
}

// CreateTask submits a new pending task for the given bank, refusing inactive
// or unregistered banks up front
func (cs *ClientSession) CreateTask(ctx context.Context, bank ethtypes.Address0xHex, dataType types.DataType, businessType types.BusinessType) (types.TaskID, error) {
	if err := cs.requireActiveCounterparty(ctx, types.RoleBank, bank); err != nil {
		return 0, err
	}
	id, err := cs.ledger.CreateTask(ctx, bank, dataType, businessType)
	if err != nil {
		return 0, err
	}
	cs.invalidate()
	return id, nil
}

// PublishResult runs decrypt, sign and publish for one completed task. The
// sign step is local, offline and deterministic - the same plaintext and key
// always produce the same signature, which is what makes the racing-sessions
// no-op rule sound. Only the signature goes on-chain; the plaintext value is
// kept in the local result store.
func (cs *ClientSession) PublishResult(ctx context.Context, id types.TaskID) (int64, error) {
	task, err := cs.ledger.GetTask(ctx, id)
	if err != nil {
		return 0, err
	}
	if task.Client != cs.identity {
		return 0, i18n.NewError(ctx, msgs.MsgCoordWrongClient, id, task.Client, cs.identity)
	}
	if !task.Completed || task.Published {
		return 0, i18n.NewError(ctx, msgs.MsgCoordTaskNotCompleted, id, task.Completed, task.Published)
	}

	value, err := cs.fhe.Decrypt(ctx, cs.identity.String(), task.DataType, (string)(task.EncryptedResult))
	if err != nil {
		return 0, err
	}
	cs.notify(id, StepDecrypted)

	plaintext := strconv.FormatInt(value, 10)
	sig, err := cs.wallet.SignResult(ctx, []byte(plaintext))
	if err != nil {
		return 0, err
	}
	cs.notify(id, StepSigned)

	if err := cs.commitSignature(ctx, id, sig); err != nil {
		return 0, err
	}
	cs.notify(id, StepPublished)
	cs.invalidate()

	cs.storeResult(ctx, task, value, sig.String())
	return value, nil
}

// commitSignature re-reads the task immediately before the publish write,
// applying the same race rule as the bank side: identical signature is no-op
// success, a different one is a surfaced conflict
func (cs *ClientSession) commitSignature(ctx context.Context, id types.TaskID, sig ethtypes.HexBytes0xPrefix) error {
	task, err := cs.ledger.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Published {
		if bytes.Equal(task.Signature, sig) {
			log.L(ctx).Infof("Task %s already published with identical signature - treating as success", id)
			return nil
		}
		return i18n.NewError(ctx, msgs.MsgCoordConflictingSignature, id)
	}
	return cs.ledger.PublishTask(ctx, id, sig)
}

// Result returns the locally stored plaintext for a published task
func (cs *ClientSession) Result(ctx context.Context, id types.TaskID) (*DecryptedResult, error) {
	var result DecryptedResult
	err := cs.p.DB().WithContext(ctx).
		Where("task_id = ?", (int64)(id)).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, i18n.NewError(ctx, msgs.MsgCoordResultCacheMiss, id)
		}
		return nil, i18n.WrapError(ctx, err, msgs.MsgPersistenceQueryFailed, "decrypted_results")
	}
	return &result, nil
}

func (cs *ClientSession) storeResult(ctx context.Context, task *types.Task, value int64, sig string) {
	result := &DecryptedResult{
		TaskID:    (int64)(task.ID),
		Client:    task.Client.String(),
		DataType:  task.DataType,
		Value:     value,
		Signature: sig,
		CreatedAt: time.Now().UTC(),
	}
	err := cs.p.DB().WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(result).Error
	if err != nil {
		// The publish is already committed - losing the local row loses convenience only
		log.L(ctx).Warnf("%s", i18n.WrapError(ctx, err, msgs.MsgPersistenceWriteFailed, "decrypted_results"))
	}
}
