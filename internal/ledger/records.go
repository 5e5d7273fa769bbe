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

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"

	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

type recordWire struct {
	Owner      *ethtypes.Address0xHex    `json:"owner"`
	Producer   *ethtypes.Address0xHex    `json:"producer"`
	DataType   string                    `json:"dataType"`
	Ciphertext ethtypes.HexBytes0xPrefix `json:"ciphertext"`
	Expiry     string                    `json:"expiry"`
}

// StoreRecord anchors one encrypted attribute on the ledger. The producer is
// the submitting wallet - the record store binds it from the transaction
// sender, so the Producer field of the input is not sent.
func (lc *ledgerClient) StoreRecord(ctx context.Context, record *types.EncryptedRecord) (ethtypes.HexBytes0xPrefix, error) {
	dataType, err := record.DataType.Validate(ctx)
	if err != nil {
		return nil, err
	}
	input := map[string]any{
		"owner":      record.Owner.String(),
		"dataType":   (string)(dataType),
		"ciphertext": record.Ciphertext.String(),
		"expiry":     record.Expiry.String(),
	}
	receipt, err := lc.sendAndConfirm(ctx, lc.recordStore, "store", input)
	if err != nil {
		return nil, err
	}
	log.L(ctx).Infof("Stored %s record for %s expiring at %s (tx=%s)",
		dataType, record.Owner, record.Expiry, receipt.TransactionHash)
	return receipt.TransactionHash, nil
}

// QueryRecords returns every record anchored for an owner and data type,
// including expired ones. Expiry against ledger time is the caller's concern,
// because only the caller knows which ledger-time read bounds its decision.
func (lc *ledgerClient) QueryRecords(ctx context.Context, owner ethtypes.Address0xHex, dataType types.DataType) ([]*types.EncryptedRecord, error) {
	dataType, err := dataType.Validate(ctx)
	if err != nil {
		return nil, err
	}
	var out struct {
		Records []*recordWire `json:"records"`
	}
	input := map[string]any{
		"owner":    owner.String(),
		"dataType": (string)(dataType),
	}
	if err := lc.call(ctx, lc.recordStore, "queryByOwnerAndType", input, &out); err != nil {
		return nil, err
	}
	records := make([]*types.EncryptedRecord, len(out.Records))
	for i, rw := range out.Records {
		expiry, err := strconv.ParseUint(rw.Expiry, 10, 64)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, msgs.MsgLedgerABIDecodeFailed, "queryByOwnerAndType")
		}
		records[i] = &types.EncryptedRecord{
			Owner:      *rw.Owner,
			Producer:   *rw.Producer,
			DataType:   types.DataType(rw.DataType),
			Ciphertext: rw.Ciphertext,
			Expiry:     types.LedgerTime(expiry),
		}
	}
	return records, nil
}
