package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var debugAddr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running server's debug endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get("http://" + debugAddr + "/debug")
			if err != nil {
				return fmt.Errorf("query debug endpoint %s: %w", debugAddr, err)
			}
			defer resp.Body.Close()

			var snapshot map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			out, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&debugAddr, "debug-addr", "127.0.0.1:6060", "address of the server's debug endpoint")
	return cmd
}
