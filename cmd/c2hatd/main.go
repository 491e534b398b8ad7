// Command c2hatd runs the TLS group chat server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "c2hatd",
		Short: "TLS-secured group chat server",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newGenConfigCmd())
	root.AddCommand(newStatusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
