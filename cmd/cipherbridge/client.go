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

	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/spf13/cobra"

	"github.com/cipherbridge/cipherbridge/internal/coordinator"
	"github.com/cipherbridge/cipherbridge/internal/registration"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Client-side operations: register, create tasks, publish results",
}

var (
	clientBank         string
	clientDataType     string
	clientBusinessType string
	clientTaskID       string
	clientListStatus   string
)

func init() {
	clientCreateCmd.Flags().StringVar(&clientBank, "bank", "", "Address of the bank to assign the task to")
	clientCreateCmd.Flags().StringVar(&clientDataType, "data-type", "", "Data type to compute over (monthly_income, credit_score, property_value)")
	clientCreateCmd.Flags().StringVar(&clientBusinessType, "business-type", "", "Business purpose of the task (loan, credit, mortgage)")
	_ = clientCreateCmd.MarkFlagRequired("bank")
	_ = clientCreateCmd.MarkFlagRequired("data-type")
	_ = clientCreateCmd.MarkFlagRequired("business-type")

	clientPublishCmd.Flags().StringVar(&clientTaskID, "task", "", "Task ID to publish")
	_ = clientPublishCmd.MarkFlagRequired("task")

	clientResultCmd.Flags().StringVar(&clientTaskID, "task", "", "Task ID to show the result for")
	_ = clientResultCmd.MarkFlagRequired("task")

	clientListCmd.Flags().StringVar(&clientListStatus, "status", "pending", "Status bucket to list (pending, completed, published, expired)")

	clientCmd.AddCommand(clientRegisterCmd)
	clientCmd.AddCommand(clientCreateCmd)
	clientCmd.AddCommand(clientPublishCmd)
	clientCmd.AddCommand(clientResultCmd)
	clientCmd.AddCommand(clientListCmd)
}

var clientRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this wallet in the client registry with a fresh FHE public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		reg, err := registration.NewManager(rt.ledger, rt.fhe).EnsureRegistered(ctx, types.RoleClient)
		if err != nil {
			return err
		}
		fmt.Printf("registered %s as client (fhePublicKey=%s)\n", reg.Address, reg.FHEPublicKey)
		return nil
	},
}

var clientCreateCmd = &cobra.Command{
	Use:   "create-task",
	Short: "Create a new computation task assigned to a bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		bank, err := ethtypes.NewAddress(clientBank)
		if err != nil {
			return err
		}
		session := coordinator.NewClientSession(rt.ledger, rt.fhe, rt.wallet, rt.db, &rt.conf.Coordinator, printProgress)
		id, err := session.CreateTask(ctx, *bank, types.DataType(clientDataType), types.BusinessType(clientBusinessType))
		if err != nil {
			return err
		}
		fmt.Printf("created task %s\n", id)
		return nil
	},
}

var clientPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Decrypt a completed task's result, sign it, and publish the attestation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		id, err := types.ParseTaskID(ctx, clientTaskID)
		if err != nil {
			return err
		}
		session := coordinator.NewClientSession(rt.ledger, rt.fhe, rt.wallet, rt.db, &rt.conf.Coordinator, printProgress)
		value, err := session.PublishResult(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("task %s published (result=%d)\n", id, value)
		return nil
	},
}

var clientResultCmd = &cobra.Command{
	Use:   "result",
	Short: "Show the locally stored decrypted result of a published task",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		id, err := types.ParseTaskID(ctx, clientTaskID)
		if err != nil {
			return err
		}
		session := coordinator.NewClientSession(rt.ledger, rt.fhe, rt.wallet, rt.db, &rt.conf.Coordinator, nil)
		result, err := session.Result(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("task %d: %s = %d (signed %s)\n", result.TaskID, result.DataType, result.Value, result.Signature)
		return nil
	},
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List this client's tasks in one status bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		session := coordinator.NewClientSession(rt.ledger, rt.fhe, rt.wallet, rt.db, &rt.conf.Coordinator, nil)
		views, err := session.ListTasks(ctx, types.TaskStatus(clientListStatus))
		if err != nil {
			return err
		}
		printTaskViews(views)
		return nil
	},
}
