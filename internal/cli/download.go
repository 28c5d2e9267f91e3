package cli

import (
	"crypto/sha256"
	"fmt"

	"github.com/adamwoolhether/relay/client"
	"github.com/adamwoolhether/relay/internal/config"
	"github.com/spf13/cobra"
)

func newDownloadCmd(cfg *config.Config, g *globals) *cobra.Command {
	var (
		checksum string
		progress bool
		mkdir    bool
		skip     bool
	)

	cmd := &cobra.Command{
		Use:   "download URL DEST",
		Short: "Stream a response body to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, cfg, g)
			if err != nil {
				return err
			}

			var opts []client.DownloadOption
			if checksum != "" {
				opts = append(opts, client.WithChecksum(sha256.New(), checksum))
			}
			if progress {
				opts = append(opts, client.WithProgress())
			}
			if mkdir {
				opts = append(opts, client.WithCreateDirs())
			}
			if skip {
				opts = append(opts, client.WithSkipExisting())
			}

			if err := c.Download(cmd.Context(), &client.Config{URL: args[0]}, args[1], opts...); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), args[1])

			return nil
		},
	}

	cmd.Flags().StringVar(&checksum, "sha256", "", "Expected hex SHA-256 of the file")
	cmd.Flags().BoolVar(&progress, "progress", false, "Log download progress")
	cmd.Flags().BoolVarP(&mkdir, "mkdir", "p", false, "Create missing parent directories")
	cmd.Flags().BoolVar(&skip, "skip-existing", false, "Do nothing when DEST already exists")

	return cmd
}
