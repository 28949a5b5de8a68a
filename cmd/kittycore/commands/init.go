package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// init: generate and publish an identity key for the logged-in user if
// this device does not hold one yet.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and publish the public half",
		RunE: func(cmd *cobra.Command, args []string) error {
			self, err := currentProfile()
			if err != nil {
				return err
			}
			kp, err := wire.KeyExchange.EnsureIdentity(cmd.Context(), self)
			if err != nil {
				return err
			}
			fmt.Printf("Identity ready.\nFingerprint: %s\n", wire.KeyExchange.Fingerprint(kp.Public))
			return nil
		},
	}
}
