// Command colm seals and opens files with the COLM authenticated
// encryption mode.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "colm.toml"

// newRootCommand creates the root cobra command
func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "colm",
		Short: "COLM authenticated encryption tool",
		Long: `Seal and open files with COLM, a nonce-misuse resistant
authenticated encryption mode over AES-128.

The key, the COLM instantiation (colm0 or colm127), the AES backend and
logging are read from a TOML configuration file.`,
		Example: `  # Seal two files, producing report.pdf.colm and notes.txt.colm
  colm -c colm.toml seal report.pdf notes.txt

  # Open them again
  colm -c colm.toml open report.pdf.colm notes.txt.colm

  # Check every backend against each other
  colm selftest`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "configuration file")

	cmd.AddCommand(
		newSealCommand(&configFile),
		newOpenCommand(&configFile),
		newSelftestCommand(),
	)

	return cmd
}

// errorHandlerWithUsage displays the error, followed by usage help for
// command line argument errors.
func errorHandlerWithUsage(cmd *cobra.Command) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		_, _ = fmt.Fprintln(w, styles.ErrorHeader.String())
		_, _ = fmt.Fprintln(w, styles.ErrorText.Render(err.Error()+"."))
		_, _ = fmt.Fprintln(w)

		if isUsageError(err) {
			_ = colorprofile.NewWriter(w, nil)
			cmd.HelpFunc()(cmd, []string{})
			return
		}

		_, _ = fmt.Fprintln(w, lipgloss.JoinHorizontal(
			lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Try"),
			styles.Program.Flag.Render("--help"),
			styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform().PaddingLeft(1).Render("for usage."),
		))
		_, _ = fmt.Fprintln(w)
	}
}

func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"requires at least",
		"failed to load config file",
	} {
		if strings.Contains(s, prefix) {
			return true
		}
	}
	return false
}

func main() {
	rootCmd := newRootCommand()

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versioninfo.Short()),
		fang.WithErrorHandler(errorHandlerWithUsage(rootCmd)),
	); err != nil {
		os.Exit(1)
	}
}
