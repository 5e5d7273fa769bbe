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

package main

import (
	"fmt"
	"time"

	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/spf13/cobra"

	"github.com/cipherbridge/cipherbridge/internal/coordinator"
	"github.com/cipherbridge/cipherbridge/internal/pipeline"
	"github.com/cipherbridge/cipherbridge/internal/registration"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Bank-side operations: register, anchor encrypted data, process tasks",
}

var (
	bankOwner      string
	bankDataType   string
	bankValue      int64
	bankTTL        time.Duration
	bankTaskID     string
	bankListStatus string
)

func init() {
	bankSubmitCmd.Flags().StringVar(&bankOwner, "owner", "", "Address of the client the attribute belongs to")
	bankSubmitCmd.Flags().StringVar(&bankDataType, "data-type", "", "Data type of the attribute (monthly_income, credit_score, property_value)")
	bankSubmitCmd.Flags().Int64Var(&bankValue, "value", -1, "Plaintext attribute value (non-negative integer)")
	bankSubmitCmd.Flags().DurationVar(&bankTTL, "ttl", 30*24*time.Hour, "Record time-to-live, applied against ledger time")
	_ = bankSubmitCmd.MarkFlagRequired("owner")
	_ = bankSubmitCmd.MarkFlagRequired("data-type")
	_ = bankSubmitCmd.MarkFlagRequired("value")

	bankProcessCmd.Flags().StringVar(&bankTaskID, "task", "", "Task ID to process")
	_ = bankProcessCmd.MarkFlagRequired("task")

	bankListCmd.Flags().StringVar(&bankListStatus, "status", "pending", "Status bucket to list (pending, completed, published, expired)")

	bankHistoryCmd.Flags().StringVar(&bankOwner, "owner", "", "Address of the client to replay history for")
	_ = bankHistoryCmd.MarkFlagRequired("owner")

	bankCmd.AddCommand(bankRegisterCmd)
	bankCmd.AddCommand(bankSubmitCmd)
	bankCmd.AddCommand(bankProcessCmd)
	bankCmd.AddCommand(bankListCmd)
	bankCmd.AddCommand(bankHistoryCmd)
}

var bankRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this wallet in the bank registry with a fresh FHE public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		reg, err := registration.NewManager(rt.ledger, rt.fhe).EnsureRegistered(ctx, types.RoleBank)
		if err != nil {
			return err
		}
		fmt.Printf("registered %s as bank (fhePublicKey=%s)\n", reg.Address, reg.FHEPublicKey)
		return nil
	},
}

var bankSubmitCmd = &cobra.Command{
	Use:   "submit-data",
	Short: "Encrypt a client attribute and anchor it on the ledger with an expiry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		owner, err := ethtypes.NewAddress(bankOwner)
		if err != nil {
			return err
		}
		p := pipeline.NewPipeline(rt.ledger, rt.fhe, rt.db)
		dataType := types.DataType(bankDataType)
		ciphertext, err := p.Encrypt(ctx, *owner, dataType, bankValue)
		if err != nil {
			return err
		}
		record, err := p.Anchor(ctx, *owner, dataType, ciphertext, bankTTL)
		if err != nil {
			return err
		}
		fmt.Printf("anchored %s record for %s (expiry=%s)\n", record.DataType, record.Owner, record.Expiry.Time())
		return nil
	},
}

var bankProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Fetch records, compute, and complete a pending task assigned to this bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		id, err := types.ParseTaskID(ctx, bankTaskID)
		if err != nil {
			return err
		}
		session := coordinator.NewBankSession(rt.ledger, rt.fhe, &rt.conf.Coordinator, printProgress)
		if err := session.ProcessTask(ctx, id); err != nil {
			return err
		}
		fmt.Printf("task %s completed\n", id)
		return nil
	},
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tasks assigned to this bank in one status bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		session := coordinator.NewBankSession(rt.ledger, rt.fhe, &rt.conf.Coordinator, nil)
		views, err := session.ListTasks(ctx, types.TaskStatus(bankListStatus))
		if err != nil {
			return err
		}
		printTaskViews(views)
		return nil
	},
}

var bankHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Replay this bank's local encryption history for one client",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		owner, err := ethtypes.NewAddress(bankOwner)
		if err != nil {
			return err
		}
		entries, err := pipeline.NewPipeline(rt.ledger, rt.fhe, rt.db).History(ctx, *owner)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no history")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s %-15s owner=%s expiry=%s tx=%s\n",
				e.CreatedAt.Format(time.RFC3339), e.DataType, e.Owner, time.Unix(e.Expiry, 0).UTC().Format(time.RFC3339), e.TXHash)
		}
		return nil
	},
}
