// Package createarchive provides the create-archive command.
package createarchive

import (
	"github.com/spf13/cobra"

	"github.com/durabackup/dura/archive"
	"github.com/durabackup/dura/cmd"
	"github.com/durabackup/dura/dura"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "create-archive archive_directory",
	Short: `Create a new empty archive.`,
	Long: `Create a new empty archive in the given directory.  The directory
is created if it does not exist, and must be empty if it does.
`,
	RunE: func(command *cobra.Command, args []string) error {
		if err := cmd.CheckArgs(1, 1, command, args); err != nil {
			return err
		}
		return cmd.Run(command, func() error {
			a, err := archive.Create(args[0])
			if err != nil {
				return err
			}
			dura.Infof(a, "Created archive")
			return nil
		})
	},
}
