// Package validate provides the validate command.
package validate

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/durabackup/dura/cmd"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "validate archive_directory",
	Short: `Check that an archive is internally consistent.`,
	Long: `Read every block and every index in the archive and check that they
are consistent: blocks decompress to content matching their hash,
indexes decode in order, and every address points into a block that
exists.  Problems are logged and counted rather than stopping at the
first one.
`,
	RunE: func(command *cobra.Command, args []string) error {
		if err := cmd.CheckArgs(1, 1, command, args); err != nil {
			return err
		}
		return cmd.Run(command, func() error {
			a, err := cmd.OpenArchive(args)
			if err != nil {
				return err
			}
			stats, err := a.Validate(context.Background())
			if stats != nil {
				fmt.Fprintf(os.Stdout, "Checked %d versions, %d blocks\n", stats.BandCount, stats.BlockCount)
				if stats.IncompleteBandCount > 0 {
					fmt.Fprintf(os.Stdout, "Incomplete versions: %d\n", stats.IncompleteBandCount)
				}
				if stats.HasProblems() {
					fmt.Fprintf(os.Stdout, "Problems: %d bad blocks, %d missing blocks, %d bad addresses, %d index errors\n",
						stats.BlockErrorCount, stats.MissingBlockCount, stats.AddressErrorCount, stats.IndexErrorCount)
				}
			}
			return err
		})
	},
}
