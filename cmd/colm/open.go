package main

import (
	"github.com/spf13/cobra"
)

func newOpenCommand(configFile *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "open FILE.colm...",
		Short: "Decrypt and verify sealed files",
		Long: `Open every sealed FILE.colm into FILE.

Nothing is written for a file that fails authentication.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configFile, "open")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.forEach(cmd.Context(), args, func(path string) error {
				return a.openFile(path, force)
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing output files")

	return cmd
}
