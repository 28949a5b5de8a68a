package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// publish-key: re-upload the stored public key. Publishing is
// idempotent; re-running it is safe.
func publishKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish-key",
		Short: "Re-publish this device's stored public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			self, err := currentProfile()
			if err != nil {
				return err
			}
			kp, err := wire.KeyExchange.LoadSecret(self)
			if err != nil {
				return err
			}
			if err := wire.KeyExchange.PublishPublicKey(cmd.Context(), kp.Public); err != nil {
				return err
			}
			fmt.Println("Public key published.")
			return nil
		},
	}
}
