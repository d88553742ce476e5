package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "seed", "deletions", "token"} {
		assert.True(t, names[want], want)
	}
}

func TestTokenCmd_RejectsBadUserID(t *testing.T) {
	_, err := execute(t, "token", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "некорректный идентификатор пользователя")
}

func TestDeletionsResume_RejectsBadID(t *testing.T) {
	_, err := execute(t, "deletions", "resume", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "некорректный идентификатор возможности")
}

func TestDeletionsResume_RequiresArgument(t *testing.T) {
	_, err := execute(t, "deletions", "resume")
	require.Error(t, err)
}

func TestCommands_RejectMemoryDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	_, err := execute(t, "deletions", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory")
}

func TestSeedCmd_Flags(t *testing.T) {
	seed := seedCmd()

	hosts, err := seed.Flags().GetInt("hosts")
	require.NoError(t, err)
	assert.Equal(t, 3, hosts)

	perHost, err := seed.Flags().GetInt("per-host")
	require.NoError(t, err)
	assert.Equal(t, 5, perHost)
}
