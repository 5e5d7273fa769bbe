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

// Package signer wraps the local secp256k1 wallet key for one operator session.
// Signing is fully offline - RFC6979 nonces make signatures deterministic for the
// same payload and key, so a re-run of the publish step can never produce a
// conflicting signature.
package signer

import (
	"context"
	"encoding/hex"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"golang.org/x/crypto/sha3"

	"github.com/cipherbridge/cipherbridge/internal/msgs"
)

type Config struct {
	// Hex encoded 32-byte private key. A fresh key is generated when unset, which
	// is only useful for tests and demos - a generated identity is not registered
	// anywhere.
	PrivateKey *string `yaml:"privateKey"`
}

type Wallet interface {
	Address() ethtypes.Address0xHex
	// SignDigest signs a pre-computed 32 byte digest (used for ledger transactions)
	SignDigest(ctx context.Context, digest []byte) (*secp256k1.SignatureData, error)
	// SignResult hashes the plaintext with keccak256 and signs it, returning the
	// compact R||S||V encoding that goes on-chain as the published attestation
	SignResult(ctx context.Context, plaintext []byte) (ethtypes.HexBytes0xPrefix, error)
}

type wallet struct {
	keypair *secp256k1.KeyPair
}

func NewWallet(ctx context.Context, conf *Config) (Wallet, error) {
	var kp *secp256k1.KeyPair
	var err error
	if conf.PrivateKey != nil {
		var keyBytes []byte
		keyBytes, err = hex.DecodeString(*conf.PrivateKey)
		if err == nil && len(keyBytes) != 32 {
			return nil, i18n.NewError(ctx, msgs.MsgSignerInvalidKey)
		}
		if err == nil {
			kp, err = secp256k1.NewSecp256k1KeyPair(keyBytes)
		}
	} else {
		kp, err = secp256k1.GenerateSecp256k1KeyPair()
	}
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgSignerInvalidKey)
	}
	return &wallet{keypair: kp}, nil
}

func WrapKeyPair(kp *secp256k1.KeyPair) Wallet {
	return &wallet{keypair: kp}
}

func (w *wallet) Address() ethtypes.Address0xHex {
	return ethtypes.Address0xHex(w.keypair.Address)
}

func (w *wallet) SignDigest(ctx context.Context, digest []byte) (*secp256k1.SignatureData, error) {
	if len(digest) == 0 {
		return nil, i18n.NewError(ctx, msgs.MsgSignerEmptyPayload)
	}
	return w.keypair.SignDirect(digest)
}

func (w *wallet) SignResult(ctx context.Context, plaintext []byte) (ethtypes.HexBytes0xPrefix, error) {
	if len(plaintext) == 0 {
		return nil, i18n.NewError(ctx, msgs.MsgSignerEmptyPayload)
	}
	sig, err := w.SignDigest(ctx, Keccak256(plaintext))
	if err != nil {
		return nil, err
	}
	return sig.CompactRSV(), nil
}

func Keccak256(data []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write(data)
	return hash.Sum(nil)
}

// RecoverResultSigner verifies a compact RSV attestation signature against the
// plaintext it claims to attest, returning the signing address
func RecoverResultSigner(ctx context.Context, plaintext []byte, compactRSV []byte) (*ethtypes.Address0xHex, error) {
	if len(compactRSV) != 65 {
		return nil, i18n.NewError(ctx, msgs.MsgSignerInvalidSignature, len(compactRSV))
	}
	sig, err := secp256k1.DecodeCompactRSV(ctx, compactRSV)
	if err != nil {
		return nil, err
	}
	return sig.RecoverDirect(Keccak256(plaintext), 0)
}
