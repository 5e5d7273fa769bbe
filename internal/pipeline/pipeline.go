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

// Package pipeline turns plaintext attributes into encrypted records anchored
// on the ledger: key issuance, encryption under the owner's key, then a ledger
// write with an expiry computed against ledger time. A local history log keeps
// a replayable trail of the producer's submissions, but the ledger record is
// the only authoritative artifact.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"

	"github.com/cipherbridge/cipherbridge/internal/cache"
	"github.com/cipherbridge/cipherbridge/internal/confutil"
	"github.com/cipherbridge/cipherbridge/internal/fheclient"
	"github.com/cipherbridge/cipherbridge/internal/ledger"
	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/internal/persistence"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

type Pipeline interface {
	// RequestKey issues (or re-fetches) the FHE public key for an owner. Safe to
	// call repeatedly - the service returns the same keys for the same wallet.
	RequestKey(ctx context.Context, owner ethtypes.Address0xHex) (string, error)
	// Encrypt encrypts one attribute value under the owner's key
	Encrypt(ctx context.Context, owner ethtypes.Address0xHex, dataType types.DataType, value int64) (string, error)
	// Anchor writes the ciphertext to the ledger record store with
	// expiry = ledgerTime + ttl, producing the immutable record
	Anchor(ctx context.Context, owner ethtypes.Address0xHex, dataType types.DataType, ciphertext string, ttl time.Duration) (*types.EncryptedRecord, error)
	// History replays this producer's local submission log, newest first
	History(ctx context.Context, owner ethtypes.Address0xHex) ([]*HistoryEntry, error)
}

// HistoryEntry is one row of the local encryption history. Non-authoritative -
// reconstructible from the ledger, losing it loses convenience only.
type HistoryEntry struct {
	ID         string         `gorm:"column:id;primaryKey" json:"id"`
	Owner      string         `gorm:"column:owner" json:"owner"`
	Producer   string         `gorm:"column:producer" json:"producer"`
	DataType   types.DataType `gorm:"column:data_type" json:"dataType"`
	Ciphertext string         `gorm:"column:ciphertext" json:"ciphertext"`
	Expiry     int64          `gorm:"column:expiry" json:"expiry"`
	TXHash     string         `gorm:"column:tx_hash" json:"txHash"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"createdAt"`
}

func (HistoryEntry) TableName() string {
	return "encryption_history"
}

type submissionPipeline struct {
	ledger   ledger.Client
	fhe      fheclient.FHEClient
	p        persistence.Persistence
	keyCache cache.Cache[string, string]
}

var keyCacheDefaults = &cache.Config{
	Capacity: confutil.P(16),
}

func NewPipeline(ledgerClient ledger.Client, fhe fheclient.FHEClient, p persistence.Persistence) Pipeline {
	return &submissionPipeline{
		ledger:   ledgerClient,
		fhe:      fhe,
		p:        p,
		keyCache: cache.NewCache[string, string](keyCacheDefaults, keyCacheDefaults),
	}
}

func (sp *submissionPipeline) RequestKey(ctx context.Context, owner ethtypes.Address0xHex) (string, error) {
	// Key issuance is idempotent per wallet, so a cached key is always still valid
	if pubKey, ok := sp.keyCache.Get(owner.String()); ok {
		return pubKey, nil
	}
	keys, err := sp.fhe.GenerateKeys(ctx, owner.String())
	if err != nil {
		return "", err
	}
	sp.keyCache.Set(owner.String(), keys.FHEPublicKey)
	return keys.FHEPublicKey, nil
}

func (sp *submissionPipeline) Encrypt(ctx context.Context, owner ethtypes.Address0xHex, dataType types.DataType, value int64) (string, error) {
	if value < 0 {
		return "", i18n.NewError(ctx, msgs.MsgPipelineNegativeValue, value)
	}
	return sp.fhe.Encrypt(ctx, owner.String(), dataType, value)
}

func (sp *submissionPipeline) Anchor(ctx context.Context, owner ethtypes.Address0xHex, dataType types.DataType, ciphertext string, ttl time.Duration) (*types.EncryptedRecord, error) {
	dataType, err := dataType.Validate(ctx)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, i18n.NewError(ctx, msgs.MsgPipelineInvalidTTL, ttl)
	}

	// The submitting wallet must be an active registered bank. An inactive or
	// unknown producer is refused before any ledger write is attempted.
	producer := sp.ledger.Submitter()
	reg, err := sp.ledger.GetRegistration(ctx, types.RoleBank, producer)
	if err != nil {
		if ledger.IsIdentityNotFound(err) {
			return nil, i18n.NewError(ctx, msgs.MsgPipelineUnauthorizedProducer, producer, owner)
		}
		return nil, err
	}
	if !reg.Active {
		return nil, i18n.NewError(ctx, msgs.MsgPipelineUnauthorizedProducer, producer, owner)
	}

	// Expiry is anchored to ledger time so a skewed producer clock cannot move it
	now, err := sp.ledger.LedgerTime(ctx)
	if err != nil {
		return nil, err
	}
	record := &types.EncryptedRecord{
		Owner:      owner,
		Producer:   producer,
		DataType:   dataType,
		Ciphertext: ethtypes.HexBytes0xPrefix(ciphertext),
		Expiry:     now.Add(ttl),
	}
	txHash, err := sp.ledger.StoreRecord(ctx, record)
	if err != nil {
		return nil, err
	}
	sp.appendHistory(ctx, record, txHash)
	return record, nil
}

func (sp *submissionPipeline) History(ctx context.Context, owner ethtypes.Address0xHex) ([]*HistoryEntry, error) {
	var entries []*HistoryEntry
	err := sp.p.DB().WithContext(ctx).
		Where("owner = ?", owner.String()).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgPersistenceQueryFailed, "encryption_history")
	}
	return entries, nil
}

func (sp *submissionPipeline) appendHistory(ctx context.Context, record *types.EncryptedRecord, txHash ethtypes.HexBytes0xPrefix) {
	entry := &HistoryEntry{
		ID:         uuid.New().String(),
		Owner:      record.Owner.String(),
		Producer:   record.Producer.String(),
		DataType:   record.DataType,
		Ciphertext: record.Ciphertext.String(),
		Expiry:     (int64)(record.Expiry),
		TXHash:     txHash.String(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := sp.p.DB().WithContext(ctx).Create(entry).Error; err != nil {
		// The record is already anchored - the history row is a convenience,
		// so a failed append is logged and the anchor still succeeds
		log.L(ctx).Warnf("%s", i18n.WrapError(ctx, err, msgs.MsgPipelineHistoryWriteFailed))
	}
}
