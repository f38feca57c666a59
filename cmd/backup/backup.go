// Package backup provides the backup command.
package backup

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/durabackup/dura/backup"
	"github.com/durabackup/dura/cmd"
	"github.com/durabackup/dura/dura"
)

var (
	excludes       []string
	printFilenames bool
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringArrayVarP(&excludes, "exclude", "", nil, "Exclude files matching this glob (repeatable)")
	cmdFlags.BoolVarP(&printFilenames, "print-filenames", "", false, "Print each filename as it is stored")
}

var commandDefinition = &cobra.Command{
	Use:   "backup archive_directory source_directory",
	Short: `Copy a source directory into a new backup version.`,
	Long: `Copy the tree under source_directory into a new version in the
archive.  File content is split into blocks which are shared with
earlier versions, so unchanged files cost only index space.
`,
	RunE: func(command *cobra.Command, args []string) error {
		if err := cmd.CheckArgs(2, 2, command, args); err != nil {
			return err
		}
		return cmd.Run(command, func() error {
			a, err := cmd.OpenArchive(args)
			if err != nil {
				return err
			}
			ci := dura.GetConfig(context.Background())
			opt := &backup.Options{
				PrintFilenames: printFilenames,
				Excludes:       append(ci.Excludes, excludes...),
			}
			stats, err := backup.Backup(context.Background(), a, args[1], opt)
			if err != nil {
				return err
			}
			stats.Summary(os.Stdout)
			return nil
		})
	},
}
