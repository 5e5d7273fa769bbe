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

// Package fheclient is the typed HTTP client for the stateless cipher-compute
// service. Each call is independent - the only cross-call correlation is the
// caller-chosen task ID passed on compute requests, which the service uses to
// treat retried requests for the same task as equivalent.
package fheclient

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/cipherbridge/cipherbridge/internal/confutil"
	"github.com/cipherbridge/cipherbridge/internal/msgs"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

type Config struct {
	URL            string  `yaml:"url"`
	RequestTimeout *string `yaml:"requestTimeout"`
}

var Defaults = &Config{
	RequestTimeout: confutil.P("30s"),
}

// FHEKeys is the result of first-time key issuance. The client key is returned to
// the owning wallet only and never stored by this process.
type FHEKeys struct {
	FHEPublicKey string `json:"fhe_public_key"`
	ClientKey    string `json:"client_key"`
}

type FHEClient interface {
	// GenerateKeys issues an FHE keypair bound to the wallet public key. Idempotent
	// on the service side - re-issuing for the same wallet returns the same keys.
	GenerateKeys(ctx context.Context, walletKey string) (*FHEKeys, error)
	// GetPublicKey fetches the FHE public key previously issued for a wallet
	GetPublicKey(ctx context.Context, walletKey string) (string, error)
	Encrypt(ctx context.Context, walletKey string, dataType types.DataType, value int64) (string, error)
	// Compute runs the homomorphic eligibility computation over the supplied
	// ciphertexts. taskID is the idempotency/correlation token.
	Compute(ctx context.Context, walletKey string, taskID types.TaskID, dataType types.DataType, encryptedValues []string) (string, error)
	Decrypt(ctx context.Context, walletKey string, dataType types.DataType, encryptedValue string) (int64, error)
}

type fheClient struct {
	client *resty.Client
}

func NewFHEClient(ctx context.Context, conf *Config) (FHEClient, error) {
	if conf.URL == "" {
		return nil, i18n.NewError(ctx, msgs.MsgFHEMissingBaseURL)
	}
	client := resty.New().
		SetBaseURL(conf.URL).
		SetTimeout(confutil.DurationMin(conf.RequestTimeout, 0, 30*time.Second)).
		SetHeader("Content-Type", "application/json")
	return &fheClient{client: client}, nil
}

type generateKeysRequest struct {
	PublicKey string `json:"public_key"`
}

type getPublicKeyResponse struct {
	FHEPublicKey string `json:"fhe_public_key"`
}

type encryptRequest struct {
	PublicKey string `json:"public_key"`
	DataType  string `json:"data_type"`
	Value     int64  `json:"value"`
}

type encryptResponse struct {
	EncryptedValue string `json:"encrypted_value"`
}

type computeRequest struct {
	PublicKey       string   `json:"public_key"`
	TaskID          string   `json:"task_id"`
	DataType        string   `json:"data_type"`
	EncryptedValues []string `json:"encrypted_values"`
}

type computeResponse struct {
	Result string `json:"result"`
}

type decryptRequest struct {
	PublicKey      string `json:"public_key"`
	DataType       string `json:"data_type"`
	EncryptedValue string `json:"encrypted_value"`
}

type decryptResponse struct {
	Value int64 `json:"value"`
}

func (fc *fheClient) GenerateKeys(ctx context.Context, walletKey string) (*FHEKeys, error) {
	var keys FHEKeys
	res, err := fc.client.R().
		SetContext(ctx).
		SetBody(&generateKeysRequest{PublicKey: walletKey}).
		SetResult(&keys).
		Post("/generate_keys")
	if err != nil || res.IsError() {
		return nil, i18n.NewError(ctx, msgs.MsgFHEKeyServiceUnavailable, resSummary(res, err))
	}
	return &keys, nil
}

func (fc *fheClient) GetPublicKey(ctx context.Context, walletKey string) (string, error) {
	var pubKey getPublicKeyResponse
	res, err := fc.client.R().
		SetContext(ctx).
		SetBody(&generateKeysRequest{PublicKey: walletKey}).
		SetResult(&pubKey).
		Post("/get_public_key")
	if err != nil || res.IsError() {
		return "", i18n.NewError(ctx, msgs.MsgFHEKeyServiceUnavailable, resSummary(res, err))
	}
	if pubKey.FHEPublicKey == "" {
		return "", i18n.NewError(ctx, msgs.MsgFHEEmptyResult, "fhe_public_key")
	}
	return pubKey.FHEPublicKey, nil
}

func (fc *fheClient) Encrypt(ctx context.Context, walletKey string, dataType types.DataType, value int64) (string, error) {
	dataType, err := dataType.Validate(ctx)
	if err != nil {
		return "", err
	}
	var encrypted encryptResponse
	res, err := fc.client.R().
		SetContext(ctx).
		SetBody(&encryptRequest{PublicKey: walletKey, DataType: dataType.String(), Value: value}).
		SetResult(&encrypted).
		Post("/encrypt")
	if err != nil || res.IsError() {
		return "", i18n.NewError(ctx, msgs.MsgFHEEncryptionFailed, resSummary(res, err))
	}
	if encrypted.EncryptedValue == "" {
		return "", i18n.NewError(ctx, msgs.MsgFHEEmptyResult, "encrypt")
	}
	return encrypted.EncryptedValue, nil
}

func (fc *fheClient) Compute(ctx context.Context, walletKey string, taskID types.TaskID, dataType types.DataType, encryptedValues []string) (string, error) {
	dataType, err := dataType.Validate(ctx)
	if err != nil {
		return "", err
	}
	log.L(ctx).Debugf("Requesting FHE computation task=%s dataType=%s inputs=%d", taskID, dataType, len(encryptedValues))
	var computed computeResponse
	res, err := fc.client.R().
		SetContext(ctx).
		SetBody(&computeRequest{
			PublicKey:       walletKey,
			TaskID:          taskID.String(),
			DataType:        dataType.String(),
			EncryptedValues: encryptedValues,
		}).
		SetResult(&computed).
		Post("/compute")
	if err != nil {
		return "", i18n.NewError(ctx, msgs.MsgFHEComputeServiceError, taskID, err)
	}
	if res.IsError() {
		// 4xx is a business validation failure (e.g. caller not entitled to this data
		// type) and must be surfaced without retry. Everything else is transport.
		if res.StatusCode() >= 400 && res.StatusCode() < 500 {
			return "", i18n.NewError(ctx, msgs.MsgFHEComputeRejected, taskID, res.StatusCode(), res.String())
		}
		return "", i18n.NewError(ctx, msgs.MsgFHEComputeServiceError, taskID, res.Status())
	}
	if computed.Result == "" {
		return "", i18n.NewError(ctx, msgs.MsgFHEEmptyResult, "compute")
	}
	return computed.Result, nil
}

func (fc *fheClient) Decrypt(ctx context.Context, walletKey string, dataType types.DataType, encryptedValue string) (int64, error) {
	dataType, err := dataType.Validate(ctx)
	if err != nil {
		return 0, err
	}
	var decrypted decryptResponse
	res, err := fc.client.R().
		SetContext(ctx).
		SetBody(&decryptRequest{PublicKey: walletKey, DataType: dataType.String(), EncryptedValue: encryptedValue}).
		SetResult(&decrypted).
		Post("/decrypt")
	if err != nil || res.IsError() {
		return 0, i18n.NewError(ctx, msgs.MsgFHEDecryptServiceError, resSummary(res, err))
	}
	return decrypted.Value, nil
}

// IsComputeRejected identifies compute requests the service refused as invalid,
// as opposed to transient service/transport failures which may be retried
func IsComputeRejected(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CB010203")
}

func resSummary(res *resty.Response, err error) string {
	if err != nil {
		return err.Error()
	}
	return res.Status()
}
