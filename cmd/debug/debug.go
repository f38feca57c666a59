// Package debug provides commands for inspecting archive internals.
package debug

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/durabackup/dura/cmd"
)

func init() {
	cmd.Root.AddCommand(debugCommand)
	debugCommand.AddCommand(blocksCommand)
	debugCommand.AddCommand(referencedCommand)
}

var debugCommand = &cobra.Command{
	Use:   "debug",
	Short: `Show low level details of archive contents.`,
}

var blocksCommand = &cobra.Command{
	Use:   "blocks archive_directory",
	Short: `List the hashes of all blocks present in an archive.`,
	RunE: func(command *cobra.Command, args []string) error {
		if err := cmd.CheckArgs(1, 1, command, args); err != nil {
			return err
		}
		return cmd.Run(command, func() error {
			a, err := cmd.OpenArchive(args)
			if err != nil {
				return err
			}
			names, err := a.BlockDir().BlockNames()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		})
	},
}

var referencedCommand = &cobra.Command{
	Use:   "referenced archive_directory",
	Short: `List the hashes of all blocks referenced by any index.`,
	RunE: func(command *cobra.Command, args []string) error {
		if err := cmd.CheckArgs(1, 1, command, args); err != nil {
			return err
		}
		return cmd.Run(command, func() error {
			a, err := cmd.OpenArchive(args)
			if err != nil {
				return err
			}
			referenced, err := a.ReferencedBlocks()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(referenced))
			for name := range referenced {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		})
	},
}
