package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jedisct1/go-colm"
)

func newSealCommand(configFile *string) *cobra.Command {
	var (
		nonceHex string
		ad       string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "seal FILE...",
		Short: "Encrypt and authenticate files",
		Long: `Seal every FILE into FILE.colm.

Each file gets a fresh random nonce unless --nonce is given, which
takes a single FILE. The associated data defaults to the base name of the file and is stored in
the clear in the sealed file header.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var nonce []byte
			if nonceHex != "" {
				if len(args) > 1 {
					return fmt.Errorf("invalid argument --nonce: a fixed nonce seals a single FILE, got %d", len(args))
				}

				var err error
				if nonce, err = hex.DecodeString(nonceHex); err != nil {
					return fmt.Errorf("invalid argument --nonce: %w", err)
				}
				if len(nonce) != colm.NonceSize {
					return fmt.Errorf("invalid argument --nonce: %d bytes, want %d", len(nonce), colm.NonceSize)
				}
			}

			a, err := newApp(*configFile, "seal")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.forEach(cmd.Context(), args, func(path string) error {
				return a.sealFile(path, nonce, ad, force)
			})
		},
	}

	cmd.Flags().StringVar(&nonceHex, "nonce", "", "hex encoded 8 byte nonce for a single FILE (default random per file)")
	cmd.Flags().StringVar(&ad, "ad", "", "associated data (default the file name)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing output files")

	return cmd
}
