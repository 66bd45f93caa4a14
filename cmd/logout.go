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

var logoutCmd = &cobra.Command{
	Use:   "logout <session>",
	Short: "Remove the saved credentials for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session := args[0]
		if err := auth.RemoveToken(session); err != nil {
			return err
		}
		fmt.Printf("Removed credentials for session %q.\n", session)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
