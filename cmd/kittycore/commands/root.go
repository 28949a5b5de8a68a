package commands

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"kittycore/internal/app"
	"kittycore/internal/domain"
	"kittycore/internal/logging"
)

var errLoginRequired = errors.New("not logged in. run: kittycore login <name> <password>")

var (
	home      string
	serverURL string
	debug     bool

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "kittycore",
		Short: "End-to-end encrypted chat CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(debug)
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".kittycore")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			wire, err = app.NewWire(app.Config{Home: home, ServerURL: serverURL})
			if err != nil {
				return err
			}

			// Resume an existing login if one is saved.
			if profile, err := wire.Sessions.Load(); err == nil {
				wire.Directory.SetToken(profile.Token)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.kittycore)")
	root.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:4000", "coordinator base URL")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		registerCmd(), loginCmd(), initCmd(), publishKeyCmd(), fingerprintCmd(),
		roomCmd(), sendCmd(), syncCmd(), watchCmd(), historyCmd(),
	)
	return root.Execute()
}

// currentProfile requires a saved login.
func currentProfile() (domain.UserID, error) {
	profile, err := wire.Sessions.Load()
	if err != nil {
		return "", errLoginRequired
	}
	return profile.UserID, nil
}
