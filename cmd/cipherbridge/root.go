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
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cipherbridge/cipherbridge/internal/coordinator"
	"github.com/cipherbridge/cipherbridge/internal/fheclient"
	"github.com/cipherbridge/cipherbridge/internal/ledger"
	"github.com/cipherbridge/cipherbridge/internal/persistence"
	"github.com/cipherbridge/cipherbridge/internal/signer"
	"github.com/cipherbridge/cipherbridge/pkg/types"
)

// Config is the top-level configuration file structure, one section per
// component, loaded from yaml
type Config struct {
	Ledger        ledger.Config      `yaml:"ledger"`
	CipherCompute fheclient.Config   `yaml:"cipherCompute"`
	DB            persistence.Config `yaml:"db"`
	Signer        signer.Config      `yaml:"signer"`
	Coordinator   coordinator.Config `yaml:"coordinator"`
	LogLevel      string             `yaml:"logLevel"`
}

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "cipherbridge",
	Short: "Privacy-preserving bank/client eligibility computation over encrypted records",
	Long: `CipherBridge anchors homomorphically encrypted financial attributes on a
ledger and drives cross-party computation tasks through their lifecycle:
a client creates a task, the assigned bank computes over the encrypted
records and completes it, and the client decrypts, signs and publishes
the attested outcome. The plaintext result never leaves the client.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "cipherbridge.yaml", "Path to the yaml configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(bankCmd)
}

func loadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}
	var conf Config
	// Component config structs carry yaml tags, so steer viper's decoder to them
	err := v.Unmarshal(&conf, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file %s: %w", configFile, err)
	}
	if conf.LogLevel != "" && !rootCmd.PersistentFlags().Changed("log-level") {
		if level, err := logrus.ParseLevel(conf.LogLevel); err == nil {
			logrus.SetLevel(level)
		}
	}
	return &conf, nil
}

// runtime is one wired-up party session: wallet, ledger client, cipher-compute
// client and the local store, all bound to the identity in the config file
type runtime struct {
	conf   *Config
	wallet signer.Wallet
	ledger ledger.Client
	fhe    fheclient.FHEClient
	db     persistence.Persistence
}

func buildRuntime(ctx context.Context) (*runtime, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, err
	}
	wallet, err := signer.NewWallet(ctx, &conf.Signer)
	if err != nil {
		return nil, err
	}
	lc, err := ledger.NewClient(ctx, &conf.Ledger, wallet)
	if err != nil {
		return nil, err
	}
	fhe, err := fheclient.NewFHEClient(ctx, &conf.CipherCompute)
	if err != nil {
		return nil, err
	}
	db, err := persistence.NewPersistence(ctx, &conf.DB)
	if err != nil {
		return nil, err
	}
	return &runtime{
		conf:   conf,
		wallet: wallet,
		ledger: lc,
		fhe:    fhe,
		db:     db,
	}, nil
}

func (r *runtime) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func printProgress(id types.TaskID, step coordinator.Step) {
	fmt.Printf("task %s: %s\n", id, step)
}

func printTaskViews(views []*coordinator.TaskView) {
	if len(views) == 0 {
		fmt.Println("no tasks")
		return
	}
	for _, tv := range views {
		fmt.Printf("%-8s %-10s %-15s %-10s client=%s bank=%s\n",
			tv.ID, tv.DerivedStatus, tv.DataType, tv.BusinessType, tv.Client, tv.Bank)
	}
}
