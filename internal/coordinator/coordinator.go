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

// Package coordinator drives the task lifecycle: the bank side moves a task
// from pending to completed, the client side from completed to published.
// Every state-changing write is preceded by a fresh ledger read, and races
// between sessions resolve to no-op success on an identical payload or a
// surfaced conflict otherwise. The ledger is the only authority - nothing in
// this package treats a local step as a committed transition.
package coordinator

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"

	"github.com/cipherbridge/cipherbridge/internal/cache"
	"github.com/cipherbridge/cipherbridge/internal/confutil"
	"github.com/cipherbridge/cipherbridge/internal/fheclient"
	"github.com/cipherbridge/cipherbridge/internal/ledger"
	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

// Step identifies one observable sub-step of a lifecycle transition. A failure
// after step N leaves the task at its last committed ledger state - steps are
// progress reporting, not checkpoints.
type Step string

const (
	StepFetched   Step = "fetched"
	StepComputed  Step = "computed"
	StepCompleted Step = "completed"
	StepDecrypted Step = "decrypted"
	StepSigned    Step = "signed"
	StepPublished Step = "published"
)

// ProgressFn receives sub-step completions for rendering. May be nil.
type ProgressFn func(id types.TaskID, step Step)

type Config struct {
	StatusCache cache.Config `yaml:"statusCache"`
}

var Defaults = &Config{
	StatusCache: cache.Config{
		Capacity: confutil.P(32),
	},
}

// TaskView is a task as presented in list views, carrying the derived status.
// DerivedStatus equals the on-chain status except for pending tasks whose
// matching records have all expired, which derive to StatusExpired. The
// derivation is local only - the ledger still holds the task as pending.
type TaskView struct {
	*types.Task
	DerivedStatus types.TaskStatus `json:"derivedStatus"`
}

// session is the state shared by both sides: the active identity, its ledger
// and compute clients, and the read-through status mirror. The mirror is never
// consulted for a state-changing decision, only for list rendering.
type session struct {
	ledger      ledger.Client
	fhe         fheclient.FHEClient
	role        types.Role
	identity    ethtypes.Address0xHex
	statusCache cache.Cache[string, []*TaskView]
	progress    ProgressFn
}

func newSession(lc ledger.Client, fhe fheclient.FHEClient, role types.Role, conf *Config, progress ProgressFn) *session {
	return &session{
		ledger:      lc,
		fhe:         fhe,
		role:        role,
		identity:    lc.Submitter(),
		statusCache: cache.NewCache[string, []*TaskView](&conf.StatusCache, &Defaults.StatusCache),
		progress:    progress,
	}
}

func (s *session) notify(id types.TaskID, step Step) {
	if s.progress != nil {
		s.progress(id, step)
	}
}

func (s *session) cacheKey(status types.TaskStatus) string {
	return s.identity.String() + "/" + (string)(status)
}

// invalidate drops every cached list for this session. Called after any
// successful write this session performs, including observed no-op races.
func (s *session) invalidate() {
	s.statusCache.Clear()
}

// ListTasks returns this identity's view of tasks in one status bucket,
// read-through cached. StatusExpired selects the pending tasks whose matching
// records have all passed their expiry.
func (s *session) ListTasks(ctx context.Context, status types.TaskStatus) ([]*TaskView, error) {
	if status == types.StatusExpired {
		pending, err := s.ListTasks(ctx, types.StatusPending)
		if err != nil {
			return nil, err
		}
		expired := make([]*TaskView, 0, len(pending))
		for _, tv := range pending {
			if tv.DerivedStatus == types.StatusExpired {
				expired = append(expired, tv)
			}
		}
		return expired, nil
	}

	key := s.cacheKey(status)
	if views, ok := s.statusCache.Get(key); ok {
		return views, nil
	}
	tasks, err := s.ledger.ListTasks(ctx, s.identity, s.role, status)
	if err != nil {
		return nil, err
	}
	views := make([]*TaskView, len(tasks))
	for i, task := range tasks {
		views[i] = &TaskView{Task: task, DerivedStatus: task.Status()}
	}
	if status == types.StatusPending {
		if err := s.deriveExpired(ctx, views); err != nil {
			return nil, err
		}
	}
	s.statusCache.Set(key, views)
	return views, nil
}

// deriveExpired marks pending tasks that can never be serviced because every
// record matching their (client, dataType) has expired. Tasks with no records
// at all stay pending - data may yet be anchored.
func (s *session) deriveExpired(ctx context.Context, views []*TaskView) error {
	var now types.LedgerTime
	for _, tv := range views {
		records, err := s.ledger.QueryRecords(ctx, tv.Client, tv.DataType)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			continue
		}
		if now == 0 {
			if now, err = s.ledger.LedgerTime(ctx); err != nil {
				return err
			}
		}
		allExpired := true
		for _, r := range records {
			if !r.Expired(now) {
				allExpired = false
				break
			}
		}
		if allExpired {
			log.L(ctx).Debugf("Task %s derives expired - all %d matching records past expiry", tv.ID, len(records))
			tv.DerivedStatus = types.StatusExpired
		}
	}
	return nil
}

// requireActiveCounterparty refuses tasks whose counterparty registration is
// missing or deactivated, even though the task still references it
func (s *session) requireActiveCounterparty(ctx context.Context, role types.Role, addr ethtypes.Address0xHex) error {
	reg, err := s.ledger.GetRegistration(ctx, role, addr)
	if err != nil {
		return err
	}
	if !reg.Active {
		return i18n.NewError(ctx, msgs.MsgLedgerInactiveIdentity, addr, role)
	}
	return nil
}
