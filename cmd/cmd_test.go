package cmd_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durabackup/dura/archive"
	"github.com/durabackup/dura/archive/band"
	"github.com/durabackup/dura/cmd"
	_ "github.com/durabackup/dura/cmd/all"
	"github.com/durabackup/dura/dura"
)

// execute dispatches a command line through the root command the same
// way main does, but returns the error instead of exiting.
func execute(args ...string) error {
	cmd.Root.SetOut(io.Discard)
	cmd.Root.SetErr(io.Discard)
	cmd.Root.SetArgs(args)
	return cmd.Root.Execute()
}

func TestCheckArgs(t *testing.T) {
	command := &cobra.Command{Use: "frob"}
	var stderr bytes.Buffer
	command.SetOut(io.Discard)
	command.SetErr(&stderr)

	assert.NoError(t, cmd.CheckArgs(1, 2, command, []string{"a"}))
	assert.NoError(t, cmd.CheckArgs(1, 2, command, []string{"a", "b"}))

	err := cmd.CheckArgs(1, 2, command, nil)
	assert.EqualError(t, err, "not enough arguments")
	assert.Contains(t, stderr.String(), "needs 1 arguments minimum")

	stderr.Reset()
	err = cmd.CheckArgs(1, 2, command, []string{"a", "b", "c"})
	assert.EqualError(t, err, "too many arguments")
	assert.Contains(t, stderr.String(), "needs 2 arguments maximum")
}

func TestParseBandSelection(t *testing.T) {
	sel, err := cmd.ParseBandSelection("")
	require.NoError(t, err)
	assert.Nil(t, sel.Band)

	sel, err = cmd.ParseBandSelection("b0042")
	require.NoError(t, err)
	require.NotNil(t, sel.Band)
	assert.Equal(t, band.ID(42), *sel.Band)

	_, err = cmd.ParseBandSelection("junk")
	assert.Error(t, err)
}

func TestDispatchUnknownCommand(t *testing.T) {
	err := execute("bogus-command")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestDispatchCreateArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	require.NoError(t, execute("create-archive", dir))

	// The archive header shows create-archive really ran.
	data, err := os.ReadFile(filepath.Join(dir, "DURA"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dura_archive_version")
}

func TestDispatchCreateArchiveMissingArg(t *testing.T) {
	err := execute("create-archive")
	assert.EqualError(t, err, "not enough arguments")
}

func TestDispatchDescribeArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	require.NoError(t, execute("create-archive", dir))
	require.NoError(t, execute("describe-archive", dir))
}

func TestDispatchDescribeArchiveTooManyArgs(t *testing.T) {
	err := execute("describe-archive", "a", "b")
	assert.EqualError(t, err, "too many arguments")
}

func TestDispatchVersions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	require.NoError(t, execute("create-archive", dir))
	require.NoError(t, execute("versions", dir))
	require.NoError(t, execute("versions", "--short", dir))
}

func TestDispatchVersion(t *testing.T) {
	require.NoError(t, execute("version"))
}

func TestDispatchRestoreIncomplete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	require.NoError(t, execute("create-archive", dir))
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "hello"), []byte("hi"), 0666))
	require.NoError(t, execute("backup", dir, source))

	// Leave an unfinished band at the end of the archive.
	a, err := archive.Open(dir)
	require.NoError(t, err)
	_, err = a.CreateBand()
	require.NoError(t, err)

	// A plain restore skips the unfinished band.
	dest := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, execute("restore", dir, dest))
	_, err = os.Stat(filepath.Join(dest, "hello"))
	assert.NoError(t, err)

	// With --incomplete the unfinished band is restored; it holds
	// nothing yet, so the destination stays empty.
	dest = filepath.Join(t.TempDir(), "dest")
	require.NoError(t, execute("restore", "--incomplete", dir, dest))
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, execute("ls", "--incomplete", dir))
}

func TestUseJSONLogFlagOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dura.toml")
	require.NoError(t, os.WriteFile(path, []byte("use_json_log = true\n"), 0666))
	ci := dura.GetConfig(context.Background())

	require.NoError(t, execute("version", "--config", path))
	assert.True(t, ci.UseJSONLog)

	// An explicit flag wins over the config file, even when it sets
	// the default value.
	require.NoError(t, execute("version", "--config", path, "--use-json-log=false"))
	assert.False(t, ci.UseJSONLog)
}
