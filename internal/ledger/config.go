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
	"github.com/cipherbridge/cipherbridge/internal/confutil"
	"github.com/cipherbridge/cipherbridge/internal/retry"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Contracts ContractsConfig `yaml:"contracts"`

	// GasEstimateFactor bumps the node's estimate before submission
	GasEstimateFactor *float64 `yaml:"gasEstimateFactor"`

	// ConfirmationTimeout bounds the receipt wait for each submitted transaction.
	// Hitting it surfaces Unconfirmed - the write may still have applied, so the
	// caller must re-read ledger state before retrying.
	ConfirmationTimeout *string      `yaml:"confirmationTimeout"`
	ConfirmationPoll    retry.Config `yaml:"confirmationPoll"`
}

type HTTPConfig struct {
	URL string `yaml:"url"`
}

type ContractsConfig struct {
	ClientRegistry *string `yaml:"clientRegistry"`
	BankRegistry   *string `yaml:"bankRegistry"`
	RecordStore    *string `yaml:"recordStore"`
	TaskStore      *string `yaml:"taskStore"`
}

var Defaults = &Config{
	GasEstimateFactor:   confutil.P(1.5),
	ConfirmationTimeout: confutil.P("30s"),
	ConfirmationPoll: retry.Config{
		InitialDelay: confutil.P("100ms"),
		MaxDelay:     confutil.P("2s"),
	},
}
