package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kittycore/internal/domain"
	"kittycore/internal/transport"
)

// send <peer> <message>: encrypt and send one message.
func sendCmd() *cobra.Command {
	var fileName, fileType string
	cmd := &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := openRoom(cmd.Context(), domain.UserID(args[0]), transport.Handlers{})
			if err != nil {
				return err
			}
			defer room.close()

			typ := domain.TypeText
			if fileName != "" {
				typ = domain.TypeFile
			}
			rec, err := room.rec.SendLocal(args[1], typ, fileName, fileType)
			if err != nil {
				return err
			}
			fmt.Printf("sent %s\n", rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&fileName, "file-name", "", "mark the message as a file with this name")
	cmd.Flags().StringVar(&fileType, "file-type", "", "MIME type for --file-name")
	return cmd
}
