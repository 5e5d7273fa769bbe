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
	"context"
	"database/sql/driver"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/cipherbridge/cipherbridge/internal/msgs"
)

// DataType is the closed enumeration of encrypted attribute tags. The cipher-compute
// service and the on-chain record store share this set, so it is validated before
// anything leaves the process.
type DataType string

const (
	DataTypeMonthlyIncome DataType = "monthly_income"
	DataTypeCreditScore   DataType = "credit_score"
	DataTypePropertyValue DataType = "property_value"
)

func DataTypeOptions() []string {
	return []string{
		(string)(DataTypeMonthlyIncome),
		(string)(DataTypeCreditScore),
		(string)(DataTypePropertyValue),
	}
}

// Case insensitive validation returning the canonical lower-case value
func (dt DataType) Validate(ctx context.Context) (DataType, error) {
	for _, o := range DataTypeOptions() {
		if strings.EqualFold(o, (string)(dt)) {
			return DataType(o), nil
		}
	}
	return "", i18n.NewError(ctx, msgs.MsgTypesInvalidDataType, dt, DataTypeOptions())
}

func (dt DataType) String() string {
	return (string)(dt)
}

// SQL valuer returns a string, and only allows the possible values
func (dt DataType) Value() (driver.Value, error) {
	v, err := dt.Validate(context.Background())
	return (string)(v), err
}

func (dt *DataType) Scan(src interface{}) error {
	switch s := src.(type) {
	case string:
		*dt = DataType(s)
	case []byte:
		*dt = DataType(s)
	default:
		return i18n.NewError(context.Background(), msgs.MsgTypesScanFail, src, *dt)
	}
	validated, err := dt.Validate(context.Background())
	if err != nil {
		return err
	}
	*dt = validated
	return nil
}

// BusinessType classifies what the bank is being asked to assess. Carried on the
// task for operator display, it does not gate which records the task may consume -
// that is the job of DataType.
type BusinessType string

const (
	BusinessTypeLoan     BusinessType = "loan"
	BusinessTypeCredit   BusinessType = "credit"
	BusinessTypeMortgage BusinessType = "mortgage"
)

func BusinessTypeOptions() []string {
	return []string{
		(string)(BusinessTypeLoan),
		(string)(BusinessTypeCredit),
		(string)(BusinessTypeMortgage),
	}
}

func (bt BusinessType) Validate(ctx context.Context) (BusinessType, error) {
	for _, o := range BusinessTypeOptions() {
		if strings.EqualFold(o, (string)(bt)) {
			return BusinessType(o), nil
		}
	}
	return "", i18n.NewError(ctx, msgs.MsgTypesInvalidBusinessType, bt, BusinessTypeOptions())
}

func (bt BusinessType) String() string {
	return (string)(bt)
}
