package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lindenrealty/rentscreen/convmem"
)

// newResetCmd wipes all conversation records and profiles. This is the
// only way to make a screening-complete conversation eligible again.
func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all conversation state and applicant profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to wipe state without --yes")
			}

			ctx := cmd.Context()
			kv, closeKV, err := kvFromViper(ctx)
			if err != nil {
				return err
			}
			if closeKV != nil {
				defer func() { _ = closeKV(ctx) }()
			}
			memory := convmem.New(kv)
			if err := memory.Load(ctx); err != nil {
				return err
			}
			n := len(memory.Records())
			if err := memory.ResetAll(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %d conversations\n", n)
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm deletion.")

	return cmd
}
