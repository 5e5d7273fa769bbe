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

package types

import (
	"database/sql/driver"
	"strconv"
	"time"
)

// LedgerTime is a block timestamp in seconds. All expiry math is performed against
// ledger time rather than wall-clock time, so producer/ledger clock skew cannot make
// a record expire early or late.
type LedgerTime uint64

func (lt LedgerTime) Add(d time.Duration) LedgerTime {
	return lt + LedgerTime(d/time.Second)
}

func (lt LedgerTime) After(other LedgerTime) bool {
	return lt > other
}

func (lt LedgerTime) Time() time.Time {
	return time.Unix((int64)(lt), 0).UTC()
}

func (lt LedgerTime) String() string {
	return strconv.FormatUint((uint64)(lt), 10)
}

func (lt LedgerTime) Value() (driver.Value, error) {
	return (int64)(lt), nil
}
