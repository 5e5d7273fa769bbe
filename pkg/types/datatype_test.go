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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataTypeValidate(t *testing.T) {
	ctx := context.Background()

	dt, err := DataType("monthly_income").Validate(ctx)
	assert.NoError(t, err)
	assert.Equal(t, DataTypeMonthlyIncome, dt)

	dt, err = DataType("Credit_Score").Validate(ctx)
	assert.NoError(t, err)
	assert.Equal(t, DataTypeCreditScore, dt)

	_, err = DataType("shoe_size").Validate(ctx)
	assert.Regexp(t, "CB010000", err)

	_, err = DataType("").Validate(ctx)
	assert.Regexp(t, "CB010000", err)
}

func TestDataTypeSQLValue(t *testing.T) {
	v, err := DataTypePropertyValue.Value()
	assert.NoError(t, err)
	assert.Equal(t, "property_value", v)

	_, err = DataType("wrong").Value()
	assert.Regexp(t, "CB010000", err)
}

func TestDataTypeScan(t *testing.T) {
	var dt DataType
	assert.NoError(t, dt.Scan("monthly_income"))
	assert.Equal(t, DataTypeMonthlyIncome, dt)

	assert.NoError(t, dt.Scan([]byte("credit_score")))
	assert.Equal(t, DataTypeCreditScore, dt)

	assert.Regexp(t, "CB010000", dt.Scan("wrong"))
	assert.Regexp(t, "CB010004", dt.Scan(12345))
}

func TestBusinessTypeValidate(t *testing.T) {
	ctx := context.Background()

	bt, err := BusinessType("LOAN").Validate(ctx)
	assert.NoError(t, err)
	assert.Equal(t, BusinessTypeLoan, bt)

	_, err = BusinessType("gambling").Validate(ctx)
	assert.Regexp(t, "CB010001", err)

	assert.Equal(t, "mortgage", BusinessTypeMortgage.String())
}
