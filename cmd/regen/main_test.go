package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRequiresGroupID(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--dry-run", "-v"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "group-id" not set`)
}

func TestRootRejectsPositionalArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--group-id", "g1", "extra"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	require.Error(t, root.Execute())
}

func TestSubcommandsDoNotRequireGroupID(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"audit", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
		assert.Nil(t, cmd.Flags().Lookup("group-id"))
	}

	audit, _, err := root.Find([]string{"audit"})
	require.NoError(t, err)
	workers, err := audit.Flags().GetInt("workers")
	require.NoError(t, err)
	assert.Equal(t, 4, workers)
}

func TestMigrateReportsConfigErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestAuditWorkersCappedByLockPool(t *testing.T) {
	assert.Equal(t, 4, auditWorkers(4, 8))
	assert.Equal(t, 8, auditWorkers(8, 8))
	assert.Equal(t, 2, auditWorkers(16, 2))
}
