// Package ls provides the ls command.
package ls

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/durabackup/dura/cmd"
	"github.com/durabackup/dura/excludes"
)

var (
	backupFlag   string
	incomplete   bool
	excludeGlobs []string
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&backupFlag, "backup", "", "", "List this version rather than the latest, e.g. b0001")
	cmdFlags.BoolVarP(&incomplete, "incomplete", "", false, "List the incomplete contents of an unfinished backup")
	cmdFlags.StringArrayVarP(&excludeGlobs, "exclude", "", nil, "Exclude files matching this glob (repeatable)")
}

var commandDefinition = &cobra.Command{
	Use:   "ls archive_directory",
	Short: `List the files in a stored backup version.`,
	RunE: func(command *cobra.Command, args []string) error {
		if err := cmd.CheckArgs(1, 1, command, args); err != nil {
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
			st, err := a.OpenStoredTree(sel)
			if err != nil {
				return err
			}
			ex, err := excludes.New(excludeGlobs)
			if err != nil {
				return err
			}
			it := st.Iter()
			for it.Scan() {
				e := it.Entry()
				if ex.Match(e.Apath) {
					continue
				}
				fmt.Println(e.Apath)
			}
			return it.Err()
		})
	},
}
