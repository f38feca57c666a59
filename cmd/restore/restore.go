// Package restore provides the restore command.
package restore

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/durabackup/dura/cmd"
	"github.com/durabackup/dura/dura"
	"github.com/durabackup/dura/restore"
)

var (
	backupFlag     string
	forceOverwrite bool
	printFilenames bool
	incomplete     bool
	excludeGlobs   []string
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&backupFlag, "backup", "", "", "Restore this version rather than the latest, e.g. b0001")
	cmdFlags.BoolVarP(&forceOverwrite, "force-overwrite", "", false, "Restore into a non-empty directory")
	cmdFlags.BoolVarP(&printFilenames, "print-filenames", "", false, "Print each filename as it is restored")
	cmdFlags.BoolVarP(&incomplete, "incomplete", "", false, "Restore the incomplete contents of an unfinished backup")
	cmdFlags.StringArrayVarP(&excludeGlobs, "exclude", "", nil, "Exclude files matching this glob (repeatable)")
}

var commandDefinition = &cobra.Command{
	Use:   "restore archive_directory dest_directory",
	Short: `Copy a stored backup version back out of the archive.`,
	Long: `Copy a stored tree from the archive into dest_directory.  The
destination is created if needed and must be empty unless
--force-overwrite is given.
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
			sel, err := cmd.ParseBandSelection(backupFlag)
			if err != nil {
				return err
			}
			sel.AllowIncomplete = incomplete
			ci := dura.GetConfig(context.Background())
			opt := &restore.Options{
				Band:           sel,
				ForceOverwrite: forceOverwrite,
				PrintFilenames: printFilenames,
				Excludes:       append(ci.Excludes, excludeGlobs...),
			}
			stats, err := restore.Restore(context.Background(), a, args[1], opt)
			if err != nil {
				return err
			}
			stats.Summary(os.Stdout)
			return nil
		})
	},
}
