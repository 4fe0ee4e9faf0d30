package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lindenrealty/rentscreen/convmem"
	"github.com/lindenrealty/rentscreen/export"
)

// newExportCmd renders collected profiles from the state store
// directly, without needing a running daemon.
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export applicant profiles as CSV or a markdown dossier",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			out := cmd.OutOrStdout()
			if path := strings.TrimSpace(flagOrViperString(cmd, "out", "")); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			format := strings.ToLower(strings.TrimSpace(flagOrViperString(cmd, "format", "")))
			switch format {
			case "", "csv":
				return export.WriteCSV(out, memory.Profiles())
			case "markdown":
				id := strings.TrimSpace(flagOrViperString(cmd, "conversation-id", ""))
				if id == "" {
					return fmt.Errorf("--format markdown requires --conversation-id")
				}
				p, ok := memory.Profile(id)
				if !ok {
					return fmt.Errorf("unknown conversation: %s", id)
				}
				body, err := export.RenderDossier(p)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, body)
				return err
			default:
				return fmt.Errorf("unknown format: %s (want csv|markdown)", format)
			}
		},
	}

	cmd.Flags().String("format", "csv", "Output format: csv|markdown.")
	cmd.Flags().String("out", "", "Write to file instead of stdout.")
	cmd.Flags().String("conversation-id", "", "Conversation for markdown dossier output.")

	return cmd
}
