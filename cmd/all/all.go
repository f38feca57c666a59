// Package all imports all the commands
package all

import (
	// Active commands
	_ "github.com/durabackup/dura/cmd"
	_ "github.com/durabackup/dura/cmd/backup"
	_ "github.com/durabackup/dura/cmd/createarchive"
	_ "github.com/durabackup/dura/cmd/debug"
	_ "github.com/durabackup/dura/cmd/describearchive"
	_ "github.com/durabackup/dura/cmd/ls"
	_ "github.com/durabackup/dura/cmd/restore"
	_ "github.com/durabackup/dura/cmd/validate"
	_ "github.com/durabackup/dura/cmd/version"
	_ "github.com/durabackup/dura/cmd/versions"
)
