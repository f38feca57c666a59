// Package version provides the version command.
package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/durabackup/dura/cmd"
	"github.com/durabackup/dura/dura"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "version",
	Short: `Show the version number.`,
	Long: `Show the dura version number, the archive format version it writes,
the go version and the build target.
`,
	RunE: func(command *cobra.Command, args []string) error {
		if err := cmd.CheckArgs(0, 0, command, args); err != nil {
			return err
		}
		ShowVersion()
		return nil
	},
}

// ShowVersion prints the version to stdout
func ShowVersion() {
	fmt.Printf("dura %s\n", dura.Version)
	fmt.Printf("- archive/format: %s\n", dura.ArchiveVersion)
	fmt.Printf("- os/type: %s\n", runtime.GOOS)
	fmt.Printf("- os/arch: %s\n", runtime.GOARCH)
	fmt.Printf("- go/version: %s\n", runtime.Version())
}
