package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kittycore/internal/domain"
	"kittycore/internal/logging"
	"kittycore/internal/reconciler"
)

// history <peer>: print the locally cached conversation. Reads only
// the local cache; the coordinator is contacted once to resolve the
// room id.
func historyCmd() *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "history <peer>",
		Short: "Show the locally cached conversation with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			self, err := currentProfile()
			if err != nil {
				return err
			}
			kp, err := wire.KeyExchange.LoadSecret(self)
			if err != nil {
				return err
			}
			roomID, peerKey, err := wire.Directory.CreateOrGetRoom(cmd.Context(), domain.UserID(args[0]))
			if err != nil {
				return err
			}

			store, err := wire.OpenCache()
			if err != nil {
				return err
			}
			defer store.Close()

			rec := reconciler.New(self, kp, roomID, peerKey, store, wire.Directory, logging.Log)
			if clear {
				if err := rec.Clear(); err != nil {
					return err
				}
				fmt.Println("local history cleared")
				return nil
			}

			recs, err := rec.History()
			if err != nil {
				return err
			}
			for _, r := range recs {
				who := r.Sender.String()
				if r.IsSender {
					who = "me"
				}
				text := r.Plaintext
				if r.Undecryptable {
					text = "<unable to decrypt>"
				}
				fmt.Printf("[%s] %s: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"), who, text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "wipe the local cache for this room instead of printing it")
	return cmd
}
