package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nullbridge/c2hat/internal/config"
)

func newGenConfigCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "genconfig",
		Short: "Write a commented default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefaultYAML(out); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("wrote default configuration to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "c2hatd.yaml", "output path")
	return cmd
}
