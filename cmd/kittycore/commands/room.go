package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kittycore/internal/domain"
)

// room <peer>: resolve (creating if needed) the unique room shared
// with peer.
func roomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "room <peer>",
		Short: "Resolve the room shared with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := currentProfile(); err != nil {
				return err
			}
			roomID, peerKey, err := wire.Directory.CreateOrGetRoom(cmd.Context(), domain.UserID(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("Room: %s\nPeer fingerprint: %s\n", roomID, wire.KeyExchange.Fingerprint(peerKey))
			return nil
		},
	}
}
