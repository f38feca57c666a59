// Package versions provides the versions command.
package versions

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/durabackup/dura/cmd"
)

var short bool

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&short, "short", "", false, "List only version names")
}

var commandDefinition = &cobra.Command{
	Use:   "versions archive_directory",
	Short: `List backup versions in an archive.`,
	Long: `List the backup versions in the archive from oldest to newest, with
the time each backup started and whether it completed.
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
			ids, err := a.ListBandIDs()
			if err != nil {
				return err
			}
			for _, id := range ids {
				if short {
					fmt.Println(id)
					continue
				}
				b, err := a.OpenBand(id)
				if err != nil {
					return err
				}
				closed, err := b.IsClosed()
				if err != nil {
					return err
				}
				state := "incomplete"
				if closed {
					state = "complete"
				}
				started := time.Unix(b.Head().StartTime, 0).Local().Format(time.RFC3339)
				fmt.Fprintf(os.Stdout, "%v  %s  %s\n", id, started, state)
			}
			return nil
		})
	},
}
