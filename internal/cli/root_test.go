package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	want := []string{"version", "ping", "tables", "describe", "migrate", "verify", "db", "runs", "config", "completion"}
	for _, name := range want {
		found, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlbridge v"+Version)
}

func TestConfigShow_FlagsAndFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlbridge.yaml"), []byte(`
source:
  dsn: sqlserver://sa:Secret123@db:1433?database=AdventureWorks
target:
  dsn: app:Secret456@tcp(mariadb:3306)/
transfer:
  workers: 3
`), 0o600))

	out, err := execute(t, "config", "show", "--database", "warehouse", "-o", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "# sqlbridge.yaml")
	assert.Contains(t, out, "type: mssql")
	assert.Contains(t, out, "type: mariadb")
	assert.Contains(t, out, "database: warehouse")
	assert.Contains(t, out, "workers: 3")
	assert.Contains(t, out, "app:****@tcp(mariadb:3306)/")
	assert.NotContains(t, out, "Secret123")
	assert.NotContains(t, out, "Secret456")
}

func TestMigrate_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "migrate", "--source-type", "oracle", "--no-state")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown connector type "oracle"`)
}

func TestMigrate_WorkersFlagValidated(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "migrate", "--workers", "0", "--no-state")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transfer.workers must be at least 1")
}

func TestTables_EmptyDescriptor(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "tables", "source")
	require.Error(t, err)
}

func TestCompletion(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlbridge")
}
