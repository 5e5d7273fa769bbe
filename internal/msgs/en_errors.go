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

package msgs

import (
	"fmt"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"golang.org/x/text/language"
)

const cbPrefix = "CB01"

var registered = false
var ffe = func(key, translation string, statusHint ...int) i18n.ErrorMessageKey {
	if !registered {
		i18n.RegisterPrefix(cbPrefix, "CipherBridge Privacy Compute")
		registered = true
	}
	if !strings.HasPrefix(key, cbPrefix) {
		panic(fmt.Errorf("must have prefix '%s': %s", cbPrefix, key))
	}
	return i18n.FFE(language.AmericanEnglish, key, translation, statusHint...)
}

var (

	// Types CB0100XX
	MsgTypesInvalidDataType     = ffe("CB010000", "Data type '%s' is not in the supported set %v")
	MsgTypesInvalidBusinessType = ffe("CB010001", "Business type '%s' is not in the supported set %v")
	MsgTypesInvalidAddress      = ffe("CB010003", "Invalid address: %s")
	MsgTypesScanFail            = ffe("CB010004", "Unable to scan type %T into type %T")
	MsgTypesInvalidTaskID       = ffe("CB010005", "Invalid task ID '%s'")

	// Ledger CB0101XX
	MsgLedgerRPCFailed           = ffe("CB010100", "JSON/RPC call %s failed")
	MsgLedgerFunctionNotFound    = ffe("CB010102", "Function %q not found in contract ABI")
	MsgLedgerEventNotFound       = ffe("CB010103", "Event %q not found in contract ABI")
	MsgLedgerInvalidInput        = ffe("CB010104", "Failed to encode inputs for %s")
	MsgLedgerRejected            = ffe("CB010105", "Ledger rejected the %s transaction: %s")
	MsgLedgerUnconfirmed         = ffe("CB010106", "Transaction %s unconfirmed after %s - re-read ledger state before retrying")
	MsgLedgerMissingEvent        = ffe("CB010107", "Transaction %s confirmed, but did not emit the expected %s event")
	MsgLedgerInactiveIdentity    = ffe("CB010108", "Identity %s is not active in the %s registry")
	MsgLedgerIdentityNotFound    = ffe("CB010109", "Identity %s is not registered in the %s registry")
	MsgLedgerTaskNotFound        = ffe("CB010110", "Task %s not found")
	MsgLedgerInvalidListScope    = ffe("CB010111", "Invalid task list scope: role=%s status=%s")
	MsgLedgerABIDecodeFailed     = ffe("CB010112", "Failed to decode %s return data")
	MsgLedgerMissingContractAddr = ffe("CB010113", "Missing contract address for %s")
	MsgLedgerChainIDFailed       = ffe("CB010114", "Failed to query ledger chain ID")
	MsgLedgerReceiptReverted     = ffe("CB010115", "Transaction %s reverted")
	MsgLedgerAlreadyRegistered   = ffe("CB010116", "Identity %s is already registered in the %s registry")

	// Cipher-compute service CB0102XX
	MsgFHEKeyServiceUnavailable = ffe("CB010200", "Key service unavailable: %s")
	MsgFHEEncryptionFailed      = ffe("CB010201", "Encryption service error: %s")
	MsgFHEComputeServiceError   = ffe("CB010202", "Compute service error for task %s: %s")
	MsgFHEComputeRejected       = ffe("CB010203", "Compute request rejected for task %s (status=%d): %s")
	MsgFHEDecryptServiceError   = ffe("CB010204", "Decrypt service error: %s")
	MsgFHEEmptyResult           = ffe("CB010205", "Cipher-compute service returned an empty %s result")
	MsgFHEMissingBaseURL        = ffe("CB010206", "Missing cipher-compute service URL")

	// Submission pipeline CB0103XX
	MsgPipelineUnauthorizedProducer = ffe("CB010300", "Producer %s is not an active registered producer for owner %s")
	MsgPipelineNegativeValue        = ffe("CB010301", "Plaintext attribute value must be a non-negative integer: %d")
	MsgPipelineInvalidTTL           = ffe("CB010302", "Record TTL must be positive: %s")
	MsgPipelineHistoryWriteFailed   = ffe("CB010303", "Failed to append encryption history entry")

	// Coordinator CB0104XX
	MsgCoordNoRecordFound        = ffe("CB010400", "No unexpired %s records found for owner %s")
	MsgCoordTaskNotPending       = ffe("CB010401", "Task %s is not pending (completed=%t published=%t)")
	MsgCoordTaskNotCompleted     = ffe("CB010402", "Task %s is not awaiting publication (completed=%t published=%t)")
	MsgCoordConflictingResult    = ffe("CB010403", "Task %s was completed concurrently with a different result - not retrying")
	MsgCoordConflictingSignature = ffe("CB010404", "Task %s was published concurrently with a different signature - not retrying")
	MsgCoordWrongBank            = ffe("CB010405", "Task %s is assigned to bank %s, not %s")
	MsgCoordWrongClient          = ffe("CB010406", "Task %s belongs to client %s, not %s")
	MsgCoordEmptyComputeResult   = ffe("CB010407", "Compute step for task %s produced an empty ciphertext - not committing")
	MsgCoordResultCacheMiss      = ffe("CB010408", "No locally cached decrypted result for task %s")

	// Persistence CB0105XX
	MsgPersistenceInvalidType         = ffe("CB010500", "Invalid persistence type: %s")
	MsgPersistenceMissingURI          = ffe("CB010501", "Missing database connection URI")
	MsgPersistenceInitFailed          = ffe("CB010502", "Database init failed")
	MsgPersistenceMigrationFailed     = ffe("CB010503", "Database migration failed")
	MsgPersistenceMissingMigrationDir = ffe("CB010504", "Missing database migration directory for autoMigrate")
	MsgPersistenceQueryFailed         = ffe("CB010505", "Local %s query failed")
	MsgPersistenceWriteFailed         = ffe("CB010506", "Local %s write failed")

	// Signer CB0106XX
	MsgSignerInvalidKey       = ffe("CB010600", "Invalid signing key")
	MsgSignerEmptyPayload     = ffe("CB010601", "Refusing to sign an empty payload")
	MsgSignerInvalidSignature = ffe("CB010602", "Invalid compact RSV signature (len=%d)")

	// Registration CB0107XX
	MsgRegistrationInvalidRole = ffe("CB010700", "Invalid registry role: %s")

	// Context CB0108XX
	MsgContextCanceled = ffe("CB010800", "Context canceled")
)
