// Robust file backup to a content addressed archive
package main

import (
	"github.com/durabackup/dura/cmd"
	_ "github.com/durabackup/dura/cmd/all" // import all commands
)

func main() {
	cmd.Main()
}
