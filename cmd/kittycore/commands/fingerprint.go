package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kittycore/internal/domain"
)

// fingerprint [user]: print the short fingerprint of our own key, or
// of a peer's published key for out-of-band comparison.
func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint [user]",
		Short: "Show a key fingerprint for out-of-band verification",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				pub, err := wire.KeyExchange.FetchPeerPublicKey(cmd.Context(), domain.UserID(args[0]))
				if err != nil {
					return err
				}
				fmt.Println(wire.KeyExchange.Fingerprint(pub))
				return nil
			}

			self, err := currentProfile()
			if err != nil {
				return err
			}
			kp, err := wire.KeyExchange.LoadSecret(self)
			if err != nil {
				return err
			}
			fmt.Println(wire.KeyExchange.Fingerprint(kp.Public))
			return nil
		},
	}
}
