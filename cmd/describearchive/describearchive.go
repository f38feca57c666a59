// Package describearchive provides the describe-archive command.
package describearchive

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/durabackup/dura/cmd"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "describe-archive archive_directory",
	Short: `Show summary information about an archive.`,
	Long: `Show the format version, the number of backup versions, the latest
version and its completion state, and how much block data the archive
holds.
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
			return a.Describe(os.Stdout)
		})
	},
}
