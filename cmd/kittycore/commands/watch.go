package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"kittycore/internal/domain"
	"kittycore/internal/transport"
)

// watch <peer>: stay connected and print messages as they arrive.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <peer>",
		Short: "Stream incoming messages from a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var room *openedRoom
			ready := make(chan struct{})
			handlers := transport.Handlers{
				OnPush: func(roomID domain.RoomID, env domain.Envelope) {
					<-ready
					room.rec.OnPush(roomID, env)
					printLatest(room)
				},
				OnStatus: func(_ domain.RoomID, msg domain.MessageID, status domain.Status) {
					fmt.Printf("  %s is now %s\n", msg, status)
				},
			}

			room, err := openRoom(cmd.Context(), domain.UserID(args[0]), handlers)
			if err != nil {
				close(ready)
				return err
			}
			close(ready)
			defer room.close()

			if _, err := room.rec.SyncFromRemote(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("watching... (ctrl-c to stop)")

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			select {
			case <-interrupt:
			case <-room.session.Done():
				fmt.Println("connection closed")
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
}

func printLatest(room *openedRoom) {
	recs, err := room.rec.History()
	if err != nil || len(recs) == 0 {
		return
	}
	last := recs[len(recs)-1]
	if last.Undecryptable {
		fmt.Printf("[%s] %s: <unable to decrypt>\n", last.Timestamp.Format("15:04:05"), last.Sender)
		return
	}
	fmt.Printf("[%s] %s: %s\n", last.Timestamp.Format("15:04:05"), last.Sender, last.Plaintext)
}
