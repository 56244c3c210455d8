package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"codenerd/internal/govtoken"
)

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect <token.json>",
	Short: "Print a token's fields and whether it is currently expired",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("sentryctl: read %s: %w", args[0], err)
		}
		var t govtoken.Token
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("sentryctl: parse %s: %w", args[0], err)
		}

		now := time.Now().UTC()
		fmt.Printf("id:           %s\n", t.ID)
		fmt.Printf("approver:     %s\n", t.ApproverID)
		fmt.Printf("approved_at:  %s\n", t.ApprovedAt.Format(time.RFC3339))
		fmt.Printf("expires_at:   %s\n", t.ExpiresAt.Format(time.RFC3339))
		fmt.Printf("expired:      %v\n", t.IsExpired(now))
		if len(t.BatchHashes) > 0 {
			fmt.Printf("batch_hashes: %v\n", t.BatchHashes)
		} else {
			fmt.Printf("subject_hash: %s\n", t.SubjectHash)
		}
		return nil
	},
}
