// Copyright 2026 The drivefuse Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drivefuse/drivefuse/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login <session>",
	Short: "Authorize drivefuse against a Google account and save the token as <session>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkBindErr(); err != nil {
			return err
		}
		session := args[0]
		if Config.ClientSecret == "" {
			return fmt.Errorf("login: --client-secret is required")
		}

		ctx := cmd.Context()
		authorize := auth.AuthorizeWithLocalRedirect
		if Config.AuthorizeUsingCode {
			authorize = auth.AuthorizeWithCode
		}
		token, err := authorize(ctx, Config.ClientSecret)
		if err != nil {
			return err
		}
		if err := auth.SaveToken(session, token); err != nil {
			return err
		}

		fmt.Printf("Saved credentials for session %q.\n", session)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
