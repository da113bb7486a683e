package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	tmlog "github.com/tendermint/tendermint/libs/log"

	"github.com/VerisLabs/hurdleRateOracle/oracle/app"
	"github.com/VerisLabs/hurdleRateOracle/oracle/config"
	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/oracle/router"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

func init() {
	log.InitLogger()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestPackCmd(t *testing.T) {
	out, err := execute(t, "pack", "500", "300")
	require.NoError(t, err)
	require.Contains(t, out, "decimal: 19661300")
	require.Contains(t, out, "hex:     0x12c01f4")

	_, err = execute(t, "pack", "10001")
	require.ErrorIs(t, err, types.ErrRateOutOfRange)

	_, err = execute(t, "pack", "abc")
	require.Error(t, err)

	_, err = execute(t, "pack")
	require.Error(t, err)
}

func TestUnpackCmd(t *testing.T) {
	out, err := execute(t, "unpack", "0x12c01f4")
	require.NoError(t, err)
	require.Contains(t, out, "lane  0: 500")
	require.Contains(t, out, "lane  1: 300")

	out, err = execute(t, "unpack", "19661300")
	require.NoError(t, err)
	require.Contains(t, out, "lane  1: 300")

	// lane 0 = 10001
	_, err = execute(t, "unpack", "10001")
	require.ErrorIs(t, err, types.ErrRateOutOfRange)

	_, err = execute(t, "unpack", "not-a-number")
	require.Error(t, err)
}

func TestInitCmd(t *testing.T) {
	home := t.TempDir()

	out, err := execute(t, "init", "--home", home)
	require.NoError(t, err)
	require.Contains(t, out, filepath.Join(home, config.FileName))
	require.FileExists(t, filepath.Join(home, config.FileName))

	_, err = execute(t, "init", "--home", home)
	require.Error(t, err)

	_, err = execute(t, "init", "--home", home, "--overwrite")
	require.NoError(t, err)
}

func TestInitCmdFromEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("RATEORACLED_HOME", home)

	_, err := execute(t, "init")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(home, config.FileName))
}

func TestExportGenesisCmd(t *testing.T) {
	home := t.TempDir()

	_, err := execute(t, "export-genesis", "--home", home)
	require.ErrorContains(t, err, "no state found")

	_, err = execute(t, "export-genesis", "--home", home, "--output", "xml")
	require.ErrorContains(t, err, "unsupported output format")

	// seed a committed genesis in the configured data dir
	require.NoError(t, config.Load(home))
	db, err := app.OpenDB(config.DBBackend(), config.DataDir())
	require.NoError(t, err)
	a, err := app.New(config.ChainID(), db, router.New(1), tmlog.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, a.InitChain(*types.DefaultGenesisState(config.Owner(), config.Router())))
	require.NoError(t, a.Close())

	out, err := execute(t, "export-genesis", "--home", home, "-o", "yaml")
	require.NoError(t, err)
	require.Contains(t, out, "owner: "+config.Owner().String())
	require.Contains(t, out, "min_update_interval: 3600")

	out, err = execute(t, "export-genesis", "--home", home)
	require.NoError(t, err)
	require.Contains(t, out, `"router": "`+config.Router().String()+`"`)
}

func TestStartCmdRejectsInvalidConfig(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, config.FileName), []byte("[chain]\nid = \"\"\n"), 0o600))

	_, err := execute(t, "start", "--home", home)
	require.ErrorContains(t, err, "invalid config")
}
