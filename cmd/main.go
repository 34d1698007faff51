/*
Copyright 2024 Reclaim Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bykiy/reclaim"
	"github.com/bykiy/reclaim/config"
	"github.com/bykiy/reclaim/database"
	"github.com/bykiy/reclaim/internal/notification"
)

// Reclaim represents the CLI application, encapsulating the root Cobra command.
type Reclaim struct {
	cmd *cobra.Command
}

// reclaimInstance holds the service instance and its configuration,
// shared across subcommands.
type reclaimInstance struct {
	service *reclaim.Reclaim
	cnf     *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the service instance
// before running any command.
func preRun(app *reclaimInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("reclaim.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newService, err := setupService(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.service = newService
		app.cnf = cnf

		return nil
	}
}

// setupService creates a new service instance connected to the
// configured data source.
func setupService(cfg *config.Configuration) (*reclaim.Reclaim, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newService, err := reclaim.NewReclaim(db)
	if err != nil {
		return nil, fmt.Errorf("error creating service: %v", err)
	}
	return newService, nil
}

// NewCLI creates the command-line interface for the application.
func NewCLI() *Reclaim {
	var configFile string
	r := &reclaimInstance{}

	var rootCmd = &cobra.Command{
		Use:   "reclaim",
		Short: "chargeback matching and revenue recovery",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./reclaim.json", "Configuration file for the server")

	rootCmd.PersistentPreRunE = preRun(r)

	rootCmd.AddCommand(serverCommands(r))
	rootCmd.AddCommand(migrateCommands(r))
	rootCmd.AddCommand(backupCommands(r))
	rootCmd.AddCommand(configCommands())

	return &Reclaim{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur.
func (w Reclaim) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
