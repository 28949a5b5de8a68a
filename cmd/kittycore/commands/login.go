package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kittycore/internal/store"
)

// login <name> <password>: authenticate and make sure this device has
// a published identity key.
func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <name> <password>",
		Short: "Log in and prepare this device's identity key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, id, err := wire.Directory.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := wire.Sessions.Save(store.Profile{UserID: id, Name: args[0], Token: token}); err != nil {
				return err
			}

			kp, err := wire.KeyExchange.EnsureIdentity(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s (%s).\nKey fingerprint: %s\n",
				args[0], id, wire.KeyExchange.Fingerprint(kp.Public))
			return nil
		},
	}
}
