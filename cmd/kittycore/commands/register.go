package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// register <name> <password>: create an account on the coordinator.
func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <name> <password>",
		Short: "Create an account on the coordinator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wire.Directory.Register(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Account created.\nUser id: %s\n", id)
			fmt.Println("Next: kittycore login", args[0], "<password>")
			return nil
		},
	}
}
