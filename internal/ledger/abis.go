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
	"encoding/json"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"

	"github.com/cipherbridge/cipherbridge/internal/msgs"
)

// The client and bank registries share one contract interface deployed twice -
// which registry an identity is active in determines its role.
const registryABIJSON = `[
  {
    "type": "function", "name": "register",
    "inputs": [
      {"name": "fhePublicKey", "type": "string"}
    ],
    "outputs": []
  },
  {
    "type": "function", "name": "getRegistration",
    "inputs": [
      {"name": "account", "type": "address"}
    ],
    "outputs": [
      {"name": "fhePublicKey", "type": "string"},
      {"name": "isActive", "type": "bool"}
    ]
  },
  {
    "type": "event", "name": "Registered",
    "inputs": [
      {"name": "account", "type": "address", "indexed": true},
      {"name": "fhePublicKey", "type": "string"}
    ]
  }
]`

const recordStoreABIJSON = `[
  {
    "type": "function", "name": "store",
    "inputs": [
      {"name": "owner", "type": "address"},
      {"name": "dataType", "type": "string"},
      {"name": "ciphertext", "type": "bytes"},
      {"name": "expiry", "type": "uint256"}
    ],
    "outputs": []
  },
  {
    "type": "function", "name": "queryByOwnerAndType",
    "inputs": [
      {"name": "owner", "type": "address"},
      {"name": "dataType", "type": "string"}
    ],
    "outputs": [
      {
        "name": "records", "type": "tuple[]",
        "components": [
          {"name": "owner", "type": "address"},
          {"name": "producer", "type": "address"},
          {"name": "dataType", "type": "string"},
          {"name": "ciphertext", "type": "bytes"},
          {"name": "expiry", "type": "uint256"}
        ]
      }
    ]
  },
  {
    "type": "event", "name": "RecordStored",
    "inputs": [
      {"name": "owner", "type": "address", "indexed": true},
      {"name": "producer", "type": "address", "indexed": true},
      {"name": "dataType", "type": "string"},
      {"name": "expiry", "type": "uint256"}
    ]
  }
]`

const taskStoreABIJSON = `[
  {
    "type": "function", "name": "create",
    "inputs": [
      {"name": "bank", "type": "address"},
      {"name": "dataType", "type": "string"},
      {"name": "businessType", "type": "string"}
    ],
    "outputs": []
  },
  {
    "type": "function", "name": "complete",
    "inputs": [
      {"name": "taskId", "type": "uint256"},
      {"name": "encryptedResult", "type": "bytes"}
    ],
    "outputs": []
  },
  {
    "type": "function", "name": "publish",
    "inputs": [
      {"name": "taskId", "type": "uint256"},
      {"name": "signature", "type": "bytes"}
    ],
    "outputs": []
  },
  {
    "type": "function", "name": "getTask",
    "inputs": [
      {"name": "taskId", "type": "uint256"}
    ],
    "outputs": [
      {
        "name": "task", "type": "tuple",
        "components": [
          {"name": "id", "type": "uint256"},
          {"name": "client", "type": "address"},
          {"name": "bank", "type": "address"},
          {"name": "dataType", "type": "string"},
          {"name": "businessType", "type": "string"},
          {"name": "isCompleted", "type": "bool"},
          {"name": "isPublished", "type": "bool"},
          {"name": "encryptedResult", "type": "bytes"},
          {"name": "signature", "type": "bytes"},
          {"name": "createdAt", "type": "uint256"}
        ]
      }
    ]
  },
  {
    "type": "function", "name": "listTasks",
    "inputs": [
      {"name": "party", "type": "address"},
      {"name": "bankView", "type": "bool"},
      {"name": "status", "type": "uint8"}
    ],
    "outputs": [
      {"name": "taskIds", "type": "uint256[]"}
    ]
  },
  {
    "type": "event", "name": "TaskCreated",
    "inputs": [
      {"name": "taskId", "type": "uint256", "indexed": true},
      {"name": "client", "type": "address", "indexed": true},
      {"name": "bank", "type": "address", "indexed": true}
    ]
  },
  {
    "type": "event", "name": "TaskCompleted",
    "inputs": [
      {"name": "taskId", "type": "uint256", "indexed": true}
    ]
  },
  {
    "type": "event", "name": "TaskPublished",
    "inputs": [
      {"name": "taskId", "type": "uint256", "indexed": true}
    ]
  }
]`

var (
	registryABI    = mustParseABI(registryABIJSON)
	recordStoreABI = mustParseABI(recordStoreABIJSON)
	taskStoreABI   = mustParseABI(taskStoreABIJSON)
)

func mustParseABI(abiJSON string) abi.ABI {
	var a abi.ABI
	if err := json.Unmarshal([]byte(abiJSON), &a); err != nil {
		panic(err)
	}
	return a
}

type boundContract struct {
	address   ethtypes.Address0xHex
	functions map[string]*boundFunction
	events    map[string]*boundEvent
}

type boundFunction struct {
	signature string
	selector  []byte
	inputs    abi.TypeComponent
	outputs   abi.TypeComponent
}

type boundEvent struct {
	entry *abi.Entry
}

func bindContract(ctx context.Context, name string, addr *string, a abi.ABI) (*boundContract, error) {
	if addr == nil || *addr == "" {
		return nil, i18n.NewError(ctx, msgs.MsgLedgerMissingContractAddr, name)
	}
	address, err := ethtypes.NewAddress(*addr)
	if err != nil {
		return nil, i18n.NewError(ctx, msgs.MsgTypesInvalidAddress, *addr)
	}
	bc := &boundContract{
		address:   *address,
		functions: map[string]*boundFunction{},
		events:    map[string]*boundEvent{},
	}
	for _, e := range a {
		if e.IsFunction() && e.Name != "" {
			bf := &boundFunction{}
			bf.selector, err = e.GenerateFunctionSelectorCtx(ctx)
			if err == nil {
				bf.signature, err = e.SignatureCtx(ctx)
			}
			if err == nil {
				bf.inputs, err = e.Inputs.TypeComponentTreeCtx(ctx)
			}
			if err == nil {
				bf.outputs, err = e.Outputs.TypeComponentTreeCtx(ctx)
			}
			if err != nil {
				return nil, err
			}
			bc.functions[e.Name] = bf
		} else if e.Type == abi.Event && e.Name != "" {
			bc.events[e.Name] = &boundEvent{entry: e}
		}
	}
	return bc, nil
}

func (bf *boundFunction) encodeCallData(ctx context.Context, input any) (ethtypes.HexBytes0xPrefix, error) {
	var inputMap map[string]any
	var err error
	switch in := input.(type) {
	case nil:
		inputMap = map[string]any{}
	case map[string]any:
		inputMap = in
	default:
		var jsonInput []byte
		jsonInput, err = json.Marshal(input)
		if err == nil {
			err = json.Unmarshal(jsonInput, &inputMap)
		}
	}
	var cv *abi.ComponentValue
	if err == nil {
		cv, err = bf.inputs.ParseExternalCtx(ctx, inputMap)
	}
	var inputData []byte
	if err == nil {
		inputData, err = cv.EncodeABIDataCtx(ctx)
	}
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgLedgerInvalidInput, bf.signature)
	}
	data := make([]byte, len(bf.selector)+len(inputData))
	copy(data, bf.selector)
	copy(data[len(bf.selector):], inputData)
	return data, nil
}
