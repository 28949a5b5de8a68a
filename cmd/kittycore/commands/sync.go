package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kittycore/internal/domain"
	"kittycore/internal/transport"
)

// sync <peer>: pull the room's pending envelopes, decrypt them into
// the local cache, and acknowledge them.
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <peer>",
		Short: "Catch up on undelivered messages from a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := openRoom(cmd.Context(), domain.UserID(args[0]), transport.Handlers{})
			if err != nil {
				return err
			}
			defer room.close()

			merged, err := room.rec.SyncFromRemote(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("synced %d envelope(s)\n", merged)
			return nil
		},
	}
}
