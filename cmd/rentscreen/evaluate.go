package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newEvaluateCmd triggers one evaluation for a conversation against a
// running daemon and prints the outcome.
func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Ask a running daemon to evaluate one conversation now",
		RunE: func(cmd *cobra.Command, args []string) error {
			conversationID := strings.TrimSpace(flagOrViperString(cmd, "conversation-id", ""))
			if conversationID == "" {
				return fmt.Errorf("missing --conversation-id")
			}

			serverURL := strings.TrimRight(strings.TrimSpace(flagOrViperString(cmd, "server-url", "server.url")), "/")
			if serverURL == "" {
				serverURL = "http://127.0.0.1:8922"
			}
			auth, _ := cmd.Flags().GetString("auth-token")
			auth = strings.TrimSpace(auth)
			if auth == "" {
				auth = strings.TrimSpace(viper.GetString("server.auth_token"))
			}
			if auth == "" {
				return fmt.Errorf("missing server.auth_token (set via --auth-token or %s_SERVER_AUTH_TOKEN)", envPrefix)
			}

			body, _ := json.Marshal(map[string]string{"conversation_id": conversationID})
			httpReq, err := http.NewRequest(http.MethodPost, serverURL+"/api/evaluate", bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", "Bearer "+auth)

			client := &http.Client{Timeout: 2 * time.Minute}
			resp, err := client.Do(httpReq)
			if err != nil {
				return err
			}
			raw, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("server http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				_, _ = os.Stdout.Write(raw)
				return nil
			}
			pretty.WriteByte('\n')
			_, _ = pretty.WriteTo(os.Stdout)
			return nil
		},
	}

	cmd.Flags().String("conversation-id", "", "Conversation to evaluate.")
	cmd.Flags().String("server-url", "http://127.0.0.1:8922", "Daemon base URL.")
	cmd.Flags().String("auth-token", "", "Bearer token for daemon auth.")

	return cmd
}
