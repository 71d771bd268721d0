package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xabinapal/skiff/internal/version"
)

// newVersionCmd creates the version command.
func (cli *CLI) newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print skiff version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}
			info := version.Get()
			return NewOutputWriter(format, cli.stdout).Write(info, func(w io.Writer) {
				if short {
					fmt.Fprintln(w, info.Short())
					return
				}
				fmt.Fprintln(w, info.String())
			})
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")

	return cmd
}
